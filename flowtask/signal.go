package flowtask

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignalCancel 创建一个可响应系统信号（如 SIGINT/SIGTERM）的上下文。
// 功能：在收到进程关闭信号时自动取消返回的 Context，用于优雅停掉
// 完成事件消费与后台上报协程。
// 参数：
//  - parent：父级上下文；
//  - signals：可选信号列表，留空则默认使用 SIGINT、SIGTERM。
// 返回：
//  - ctx：当接收到任一信号时 Done() 即会关闭；
//  - stop：释放底层 signal 监听的函数，通常在退出时 defer 调用。
func WithSignalCancel(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return signal.NotifyContext(parent, signals...)
}
