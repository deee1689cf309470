package flowtask_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/flowtask"
	"github.com/mengeric/flowtask-go/mocks"
	"github.com/mengeric/flowtask-go/storage/memstore"
)

// 终端节点 end-node 上 5 条成功、2 条失败（同一 trace）、1 条运行中，
// 另有一条挂在中间节点，不该被分页看到。
func seedContexts(cs *memstore.ContextStore) {
	for i := 0; i < 5; i++ {
		cs.Put(flowtask.ItemContext{
			ID: fmt.Sprintf("ok-%d", i), TraceID: "tr-ok", FlowContextID: "tx1",
			NodeID: "end-node", Status: flowtask.StatusArchived, Data: `{"path":"/a"}`,
		})
	}
	cs.Put(flowtask.ItemContext{
		ID: "bad-0", TraceID: "tr-bad", FlowContextID: "tx1",
		NodeID: "end-node", Status: flowtask.StatusError,
	})
	cs.Put(flowtask.ItemContext{
		ID: "bad-1", TraceID: "tr-bad", FlowContextID: "tx1",
		NodeID: "end-node", Status: flowtask.StatusError, ErrorMsg: "permission denied",
	})
	cs.Put(flowtask.ItemContext{
		ID: "run-0", TraceID: "tr-ok", FlowContextID: "tx1",
		NodeID: "end-node", Status: flowtask.StatusRunning,
	})
	cs.Put(flowtask.ItemContext{
		ID: "mid-0", TraceID: "tr-ok", FlowContextID: "tx1",
		NodeID: "mid-node", Status: flowtask.StatusArchived,
	})
}

func TestPage(t *testing.T) {
	ctx := context.Background()

	newOrch := func(ctrl *gomock.Controller) (*flowtask.Orchestrator, *mocks.MockFlowEngine) {
		engine := mocks.NewMockFlowEngine(ctrl)
		cs := memstore.NewContextStore()
		seedContexts(cs)
		o := flowtask.New(flowtask.WithFlowEngine(engine), flowtask.WithContextStore(cs))
		seedInstance(t, o, flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning,
			FlowID: "clean-flow", FlowVersion: 1, FlowContextID: "tx1",
		})
		return o, engine
	}

	Convey("paging slices the terminal node only and counts the whole filter", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o, engine := newOrch(ctrl)
		engine.EXPECT().ResolveDefinitionByStreamID(gomock.Any(), "clean-flow-1").
			Return(&client.FlowDefinition{FlowID: "clean-flow", Version: 1, EndNodeID: "end-node"}, nil)

		res, err := o.Page(ctx, "t1", "i1", "", 1, 3, flowtask.FilterAll)
		So(err, ShouldBeNil)
		So(res.Total, ShouldEqual, 8)
		So(len(res.Items), ShouldEqual, 3)

		res, err = o.Page(ctx, "t1", "i1", "", 3, 3, flowtask.FilterAll)
		So(err, ShouldBeNil)
		So(len(res.Items), ShouldEqual, 2)
	})

	Convey("the flow definition is resolved once and then served from cache", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o, engine := newOrch(ctrl)
		engine.EXPECT().ResolveDefinitionByStreamID(gomock.Any(), "clean-flow-1").
			Return(&client.FlowDefinition{FlowID: "clean-flow", Version: 1, EndNodeID: "end-node"}, nil).
			Times(1)

		for i := 0; i < 3; i++ {
			_, err := o.Page(ctx, "t1", "i1", "", 1, 10, flowtask.FilterArchived)
			So(err, ShouldBeNil)
		}
	})

	Convey("status filters map to the right record sets", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o, engine := newOrch(ctrl)
		engine.EXPECT().ResolveDefinitionByStreamID(gomock.Any(), "clean-flow-1").
			Return(&client.FlowDefinition{FlowID: "clean-flow", Version: 1, EndNodeID: "end-node"}, nil)
		engine.EXPECT().ErrorDetail(gomock.Any(), "tr-bad").
			Return([]client.ErrorRecord{{ItemID: "bad-0", NodeID: "end-node", Message: "file corrupted"}}, nil).
			AnyTimes()

		res, err := o.Page(ctx, "t1", "i1", "", 1, 20, flowtask.FilterArchived)
		So(err, ShouldBeNil)
		So(res.Total, ShouldEqual, 5)

		res, err = o.Page(ctx, "t1", "i1", "", 1, 20, flowtask.FilterError)
		So(err, ShouldBeNil)
		So(res.Total, ShouldEqual, 2)

		res, err = o.Page(ctx, "t1", "i1", "", 1, 20, flowtask.FilterFinished)
		So(err, ShouldBeNil)
		So(res.Total, ShouldEqual, 7)
	})

	Convey("missing local error text is backfilled from the engine, one call per trace", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o, engine := newOrch(ctrl)
		engine.EXPECT().ResolveDefinitionByStreamID(gomock.Any(), "clean-flow-1").
			Return(&client.FlowDefinition{FlowID: "clean-flow", Version: 1, EndNodeID: "end-node"}, nil)
		engine.EXPECT().ErrorDetail(gomock.Any(), "tr-bad").
			Return([]client.ErrorRecord{{ItemID: "bad-0", NodeID: "end-node", Message: "file corrupted"}}, nil).
			Times(1)

		res, err := o.Page(ctx, "t1", "i1", "", 1, 20, flowtask.FilterError)
		So(err, ShouldBeNil)
		byID := map[string]flowtask.ItemOutcome{}
		for _, it := range res.Items {
			byID[it.ID] = it
		}
		So(byID["bad-0"].ErrorDetail, ShouldEqual, "file corrupted")
		So(byID["bad-1"].ErrorDetail, ShouldEqual, "permission denied")
	})

	Convey("a trace filter narrows the page to one delivery", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		o, engine := newOrch(ctrl)
		engine.EXPECT().ResolveDefinitionByStreamID(gomock.Any(), "clean-flow-1").
			Return(&client.FlowDefinition{FlowID: "clean-flow", Version: 1, EndNodeID: "end-node"}, nil)

		res, err := o.Page(ctx, "t1", "i1", "tr-ok", 1, 20, flowtask.FilterAll)
		So(err, ShouldBeNil)
		So(res.Total, ShouldEqual, 6)
	})
}
