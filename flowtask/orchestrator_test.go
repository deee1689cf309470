package flowtask_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/mengeric/flowtask-go/flowtask"
	"github.com/mengeric/flowtask-go/mocks"
	"github.com/mengeric/flowtask-go/storage/memstore"
)

func nowPtr() *time.Time {
	t := time.Now()
	return &t
}

func seedInstance(t *testing.T, o *flowtask.Orchestrator, ins flowtask.Instance) {
	t.Helper()
	if err := o.Store().Save(context.Background(), &ins); err != nil {
		t.Fatalf("seed instance: %v", err)
	}
}

func mustGet(t *testing.T, o *flowtask.Orchestrator, taskID, instanceID string) *flowtask.Instance {
	t.Helper()
	ins, err := o.Store().Get(context.Background(), taskID, instanceID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	return ins
}

func TestOrchestratorStart(t *testing.T) {
	ctx := context.Background()

	Convey("start opens a fresh transaction and resets every progress field", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		finish := nowPtr()
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusError,
			FlowID: "clean-flow", FlowVersion: 2,
			FlowParams:    map[string]any{"bucket": "b1"},
			FlowContextID: "tx-old", FileNum: 5, ProcessedNum: 3,
			CleaningData: 99, ProgressPercent: 60,
			Extensions: flowtask.Extensions{ScanStatus: flowtask.ScanEnd, FirstScan: true},
			FinishTime: finish,
		})

		engine.EXPECT().StartFlow(gomock.Any(), "clean-flow", 2, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ int, params map[string]any) (string, error) {
				So(params["taskId"], ShouldEqual, "t1")
				So(params["taskInstanceId"], ShouldEqual, "i1")
				So(params["bucket"], ShouldEqual, "b1")
				return "tx-new", nil
			})

		txID, err := o.Start(ctx, "t1", "i1")
		So(err, ShouldBeNil)
		So(txID, ShouldEqual, "tx-new")

		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusRunning)
		So(ins.FlowContextID, ShouldEqual, "tx-new")
		So(ins.FileNum, ShouldEqual, 0)
		So(ins.ProcessedNum, ShouldEqual, 0)
		So(ins.CleaningData, ShouldEqual, 0)
		So(ins.ProgressPercent, ShouldEqual, 0)
		So(ins.Extensions.FirstScan, ShouldBeFalse)
		So(ins.Extensions.ScanStatus, ShouldEqual, flowtask.ScanStatus(""))
		So(ins.FinishTime, ShouldBeNil)
	})

	Convey("engine failure leaves the stored state untouched", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusInit,
			FlowID: "clean-flow", FlowVersion: 1,
		})
		engine.EXPECT().StartFlow(gomock.Any(), "clean-flow", 1, gomock.Any()).
			Return("", errors.New("engine down"))

		_, err := o.Start(ctx, "t1", "i1")
		So(err, ShouldNotBeNil)
		So(mustGet(t, o, "t1", "i1").Status, ShouldEqual, flowtask.StatusInit)
	})
}

func TestOrchestratorAppend(t *testing.T) {
	ctx := context.Background()

	Convey("a live batch bumps file_num and lands on the insertion point", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
		})
		engine.EXPECT().
			RegisterInsertionPoint(gomock.Any(), "clean-flow-1", "clean-flow", 1, "scan-node", gomock.Any()).
			Return(nil)

		items := []flowtask.DataItem{
			{NodeMetaID: "scan-node", FlowContextID: "tx1", ContextData: map[string]any{"path": "/a"}},
			{NodeMetaID: "scan-node", FlowContextID: "tx1", ContextData: map[string]any{"path": "/b"}},
		}
		So(o.Append(ctx, "t1", "i1", items), ShouldBeNil)
		So(mustGet(t, o, "t1", "i1").FileNum, ShouldEqual, 2)

		point, err := o.Registry().GetOrCreate(ctx, "clean-flow", 1, "scan-node")
		So(err, ShouldBeNil)
		msg := <-point.Ch.Recv()
		So(msg.FlowContextID, ShouldEqual, "tx1")
		So(msg.TraceID, ShouldNotBeEmpty)
		So(len(msg.Items), ShouldEqual, 2)
	})

	Convey("a batch carrying a superseded transaction is dropped whole", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx2",
		})

		items := []flowtask.DataItem{
			{NodeMetaID: "scan-node", FlowContextID: "tx1", ContextData: map[string]any{"path": "/a"}},
		}
		So(o.Append(ctx, "t1", "i1", items), ShouldBeNil)
		So(mustGet(t, o, "t1", "i1").FileNum, ShouldEqual, 0)
	})

	Convey("a batch mixing transactions or nodes is rejected up front", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o := flowtask.New(flowtask.WithFlowEngine(mocks.NewMockFlowEngine(ctrl)))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
		})

		err := o.Append(ctx, "t1", "i1", []flowtask.DataItem{
			{NodeMetaID: "scan-node", FlowContextID: "tx1", ContextData: map[string]any{"path": "/a"}},
			{NodeMetaID: "scan-node", FlowContextID: "tx2", ContextData: map[string]any{"path": "/b"}},
		})
		So(errors.Is(err, flowtask.ErrMixedBatch), ShouldBeTrue)

		err = o.Append(ctx, "t1", "i1", []flowtask.DataItem{
			{NodeMetaID: "scan-node", FlowContextID: "tx1", ContextData: map[string]any{"path": "/a"}},
			{NodeMetaID: "other-node", FlowContextID: "tx1", ContextData: map[string]any{"path": "/b"}},
		})
		So(errors.Is(err, flowtask.ErrMixedBatch), ShouldBeTrue)
		So(mustGet(t, o, "t1", "i1").FileNum, ShouldEqual, 0)
	})

	Convey("an item with no payload is rejected up front", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o := flowtask.New(flowtask.WithFlowEngine(mocks.NewMockFlowEngine(ctrl)))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
		})

		err := o.Append(ctx, "t1", "i1", []flowtask.DataItem{{NodeMetaID: "scan-node", FlowContextID: "tx1"}})
		So(errors.Is(err, flowtask.ErrMissingContextData), ShouldBeTrue)
	})

	Convey("the empty batch is a sentinel: latch scan END and finalize when the engine is done", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
			FileNum: 3, ProcessedNum: 3, ProgressPercent: 100,
			Extensions: flowtask.Extensions{ScanStatus: flowtask.ScanRunning, FirstScan: true},
		})
		engine.EXPECT().AggregateStatus(gomock.Any(), "tx1").Return(string(flowtask.StatusArchived), nil)

		So(o.Append(ctx, "t1", "i1", nil), ShouldBeNil)
		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusArchived)
		So(ins.Extensions.ScanStatus, ShouldEqual, flowtask.ScanEnd)
		So(ins.FinishTime, ShouldNotBeNil)
	})

	Convey("sentinel with the engine still running only latches scan END", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
			FileNum: 3, ProcessedNum: 1,
			Extensions: flowtask.Extensions{ScanStatus: flowtask.ScanRunning, FirstScan: true},
		})
		engine.EXPECT().AggregateStatus(gomock.Any(), "tx1").Return(string(flowtask.StatusRunning), nil)

		So(o.Append(ctx, "t1", "i1", nil), ShouldBeNil)
		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusRunning)
		So(ins.Extensions.ScanStatus, ShouldEqual, flowtask.ScanEnd)
		So(ins.FinishTime, ShouldBeNil)
	})
}

func TestOrchestratorRetry(t *testing.T) {
	ctx := context.Background()

	Convey("retry without a transaction is refused", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o := flowtask.New(flowtask.WithFlowEngine(mocks.NewMockFlowEngine(ctrl)))
		seedInstance(t, o, flowtask.Instance{TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusInit})

		err := o.Retry(ctx, "t1", "i1", []flowtask.RetryItem{{ItemID: "d1"}})
		So(errors.Is(err, flowtask.ErrNoTransaction), ShouldBeTrue)
	})

	Convey("retry with results still in flight is refused before any mutation", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o := flowtask.New(flowtask.WithFlowEngine(mocks.NewMockFlowEngine(ctrl)))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusPartialError,
			FlowContextID: "tx1", FileNum: 5, ProcessedNum: 2,
		})

		err := o.Retry(ctx, "t1", "i1", []flowtask.RetryItem{{ItemID: "d1"}})
		So(errors.Is(err, flowtask.ErrRetryCountMismatch), ShouldBeTrue)
		So(mustGet(t, o, "t1", "i1").Status, ShouldEqual, flowtask.StatusPartialError)
	})

	Convey("retry replays failed items inside the original transaction", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		finish := nowPtr()
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusPartialError,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
			FileNum: 3, ProcessedNum: 1, FinishTime: finish,
			Extensions: flowtask.Extensions{ScanStatus: flowtask.ScanEnd, FirstScan: true},
		})
		items := []flowtask.RetryItem{
			{ItemID: "d1", TraceID: "tr1", Data: map[string]any{"path": "/a"}},
			{ItemID: "d2", TraceID: "tr1", Data: map[string]any{"path": "/b"}},
		}

		engine.EXPECT().ArchiveTraces(gomock.Any(), []string{"tr1"}).Return(nil)
		engine.EXPECT().DeleteItems(gomock.Any(), []string{"d1", "d2"}).Return(nil)
		engine.EXPECT().ContinueFlow(gomock.Any(), "clean-flow", 1, "tx1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ int, _ string, params map[string]any) error {
				So(params["startType"], ShouldEqual, "RETRY")
				So(params["taskId"], ShouldEqual, "t1")
				retried, _ := params["retryItems"].([]map[string]any)
				So(len(retried), ShouldEqual, 2)
				return nil
			})

		So(o.Retry(ctx, "t1", "i1", items), ShouldBeNil)
		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusRunning)
		So(ins.FlowContextID, ShouldEqual, "tx1")
		So(ins.FinishTime, ShouldBeNil)
		So(ins.Extensions.FirstScan, ShouldBeFalse)
	})
}

func TestOrchestratorTerminateDelete(t *testing.T) {
	ctx := context.Background()

	Convey("terminate stops the flow and marks the instance", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning, FlowContextID: "tx1",
		})
		engine.EXPECT().Terminate(gomock.Any(), "tx1").Return(nil)

		So(o.Terminate(ctx, "t1", "i1"), ShouldBeNil)
		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusTerminate)
		So(ins.FinishTime, ShouldNotBeNil)
	})

	Convey("terminate on an already terminal instance changes nothing", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusArchived, FlowContextID: "tx1",
		})
		engine.EXPECT().Terminate(gomock.Any(), "tx1").Return(nil)

		So(o.Terminate(ctx, "t1", "i1"), ShouldBeNil)
		So(mustGet(t, o, "t1", "i1").Status, ShouldEqual, flowtask.StatusArchived)
	})

	Convey("delete tears down contexts and the instance record, even when terminate fails", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		ctxStore := memstore.NewContextStore()
		o := flowtask.New(flowtask.WithFlowEngine(engine), flowtask.WithContextStore(ctxStore))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning, FlowContextID: "tx1",
		})
		ctxStore.Put(flowtask.ItemContext{ID: "d1", FlowContextID: "tx1", NodeID: "end", Status: flowtask.StatusArchived})
		ctxStore.Put(flowtask.ItemContext{ID: "d2", FlowContextID: "tx-other", NodeID: "end", Status: flowtask.StatusArchived})
		engine.EXPECT().Terminate(gomock.Any(), "tx1").Return(errors.New("already gone"))

		So(o.Delete(ctx, "t1", "i1"), ShouldBeNil)

		_, err := o.Store().Get(ctx, "t1", "i1")
		So(errors.Is(err, flowtask.ErrInstanceNotFound), ShouldBeTrue)
		n, _ := ctxStore.Count(ctx, flowtask.ContextQuery{FlowContextID: "tx-other"})
		So(n, ShouldEqual, 1)
		n, _ = ctxStore.Count(ctx, flowtask.ContextQuery{FlowContextID: "tx1"})
		So(n, ShouldEqual, 0)
	})
}

func TestScanEndSettlesDeferredCompletion(t *testing.T) {
	ctx := context.Background()

	Convey("a completion deferred during scanning is settled by the closing scan event", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
			FileNum: 2, ProcessedNum: 2, ProgressPercent: 100,
			Extensions: flowtask.Extensions{ScanStatus: flowtask.ScanRunning, FirstScan: true},
		})

		// 引擎只发一次完成事件；扫描未结束，这次收尾被推迟
		evt := flowtask.CompletionEvent{
			FlowContextID: "tx1", Status: flowtask.StatusArchived,
			StartPayload:  json.RawMessage(`{"taskId":"t1","taskInstanceId":"i1"}`),
		}
		So(o.OnTransactionCompleted(ctx, evt), ShouldBeNil)
		So(mustGet(t, o, "t1", "i1").Status, ShouldEqual, flowtask.StatusRunning)

		engine.EXPECT().AggregateStatus(gomock.Any(), "tx1").Return(string(flowtask.StatusArchived), nil)
		So(o.OnScanBatch(ctx, "t1", "i1", flowtask.ScanFeedback{
			FlowContextID: "tx1", ScanStatus: flowtask.ScanEnd,
		}), ShouldBeNil)

		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusArchived)
		So(ins.ProgressPercent, ShouldEqual, 100)
		So(ins.Extensions.ScanStatus, ShouldEqual, flowtask.ScanEnd)
		So(ins.FinishTime, ShouldNotBeNil)
	})

	Convey("the closing scan event leaves a still running transaction open", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
			FileNum: 4, ProcessedNum: 2, ProgressPercent: 50,
			Extensions: flowtask.Extensions{ScanStatus: flowtask.ScanRunning, FirstScan: true},
		})
		engine.EXPECT().AggregateStatus(gomock.Any(), "tx1").Return(string(flowtask.StatusRunning), nil)

		So(o.OnScanBatch(ctx, "t1", "i1", flowtask.ScanFeedback{
			FlowContextID: "tx1", Count: 1, ScanStatus: flowtask.ScanEnd,
		}), ShouldBeNil)

		ins := mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusRunning)
		So(ins.FileNum, ShouldEqual, 5)
		So(ins.Extensions.ScanStatus, ShouldEqual, flowtask.ScanEnd)
		So(ins.FinishTime, ShouldBeNil)
	})
}

// 全链路：启动 -> 扫描发现 -> 单条完成 -> 空批收尾。
func TestOrchestratorLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("a three item run walks to ARCHIVED at 100 percent", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		o := flowtask.New(flowtask.WithFlowEngine(engine))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusInit,
			FlowID: "clean-flow", FlowVersion: 1,
		})
		engine.EXPECT().StartFlow(gomock.Any(), "clean-flow", 1, gomock.Any()).Return("tx1", nil)
		engine.EXPECT().AggregateStatus(gomock.Any(), "tx1").Return(string(flowtask.StatusArchived), nil)

		txID, err := o.Start(ctx, "t1", "i1")
		So(err, ShouldBeNil)

		So(o.OnScanBatch(ctx, "t1", "i1", flowtask.ScanFeedback{
			FlowContextID: txID, Count: 3, ScanStatus: flowtask.ScanRunning,
		}), ShouldBeNil)

		for i := 0; i < 3; i++ {
			So(o.OnItemCompleted(ctx, "t1", "i1", flowtask.ItemFeedback{
				FlowContextID: txID, SizeRaw: "2048",
			}), ShouldBeNil)
		}
		ins := mustGet(t, o, "t1", "i1")
		So(ins.ProgressPercent, ShouldEqual, 100)
		So(ins.CleaningData, ShouldEqual, 3*2048)
		So(ins.Status, ShouldEqual, flowtask.StatusRunning)

		So(o.Append(ctx, "t1", "i1", nil), ShouldBeNil)
		ins = mustGet(t, o, "t1", "i1")
		So(ins.Status, ShouldEqual, flowtask.StatusArchived)
		So(ins.ProgressPercent, ShouldEqual, 100)
		So(ins.Extensions.ScanStatus, ShouldEqual, flowtask.ScanEnd)
	})
}
