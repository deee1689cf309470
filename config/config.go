package config

// Config 组件运行所需的完整配置（可选）。
// 功能：承载流程引擎地址、Redis（分布式锁与完成事件）、数据库及后台上报任务相关配置。
// 注意：组件本身不创建 HTTP 服务；宿主按需把编排接口挂到自己的传输层。
type Config struct {
	BootstrapEngine string `yaml:"bootstrapEngine"` // 流程引擎引导地址，如 127.0.0.1:7700
	WorkerAddress   string `yaml:"workerAddress"`   // 向引擎上报的 worker 外部可见地址
	ClientVersion   string `yaml:"clientVersion"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		// CompletionChannel 事务完成事件的订阅频道
		CompletionChannel string `yaml:"completionChannel"`
	} `yaml:"redis"`

	Mysql struct {
		DataSource string `yaml:"dataSource"` // 形如 user:pass@tcp(127.0.0.1:3306)/db?charset=utf8mb4&parseTime=true&loc=Local
	} `yaml:"mysql"`

	HeartbeatSeconds int `yaml:"heartbeatSeconds"`
	ReportSeconds    int `yaml:"reportSeconds"`
	DiscoverySeconds int `yaml:"discoverySeconds"`

	LockTTLSeconds   int `yaml:"lockTtlSeconds"`   // 实例锁的过期秒数
	LockWaitSeconds  int `yaml:"lockWaitSeconds"`  // 抢锁最长等待秒数
	AppendBufferSize int `yaml:"appendBufferSize"` // 追加点通道容量
}
