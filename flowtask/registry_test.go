package flowtask_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/mengeric/flowtask-go/flowtask"
	"github.com/mengeric/flowtask-go/mocks"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	Convey("concurrent lookups register with the engine exactly once", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		engine.EXPECT().
			RegisterInsertionPoint(gomock.Any(), "clean-flow-1", "clean-flow", 1, "scan-node", gomock.Any()).
			Return(nil).
			Times(1)
		r := flowtask.NewRegistry(engine, 8)
		defer r.Close()

		var wg sync.WaitGroup
		points := make([]*flowtask.AppendPoint, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := r.GetOrCreate(ctx, "clean-flow", 1, "scan-node")
				if err == nil {
					points[i] = p
				}
			}(i)
		}
		wg.Wait()

		for _, p := range points {
			So(p, ShouldNotBeNil)
			So(p, ShouldEqual, points[0])
		}
		So(points[0].StreamID, ShouldEqual, "clean-flow-1")
	})

	Convey("a different flow version is a distinct insertion point", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		engine.EXPECT().
			RegisterInsertionPoint(gomock.Any(), "clean-flow-1", "clean-flow", 1, "scan-node", gomock.Any()).
			Return(nil)
		engine.EXPECT().
			RegisterInsertionPoint(gomock.Any(), "clean-flow-2", "clean-flow", 2, "scan-node", gomock.Any()).
			Return(nil)
		r := flowtask.NewRegistry(engine, 8)
		defer r.Close()

		p1, err := r.GetOrCreate(ctx, "clean-flow", 1, "scan-node")
		So(err, ShouldBeNil)
		p2, err := r.GetOrCreate(ctx, "clean-flow", 2, "scan-node")
		So(err, ShouldBeNil)
		So(p1, ShouldNotEqual, p2)
		So(p1.Ch, ShouldNotEqual, p2.Ch)
	})

	Convey("the node of the first registration wins", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		engine.EXPECT().
			RegisterInsertionPoint(gomock.Any(), "clean-flow-1", "clean-flow", 1, "scan-node", gomock.Any()).
			Return(nil)
		r := flowtask.NewRegistry(engine, 8)
		defer r.Close()

		_, err := r.GetOrCreate(ctx, "clean-flow", 1, "scan-node")
		So(err, ShouldBeNil)
		p, err := r.GetOrCreate(ctx, "clean-flow", 1, "another-node")
		So(err, ShouldBeNil)
		So(p.NodeID, ShouldEqual, "scan-node")
	})

	Convey("registration failure is not cached, the next call retries", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		engine := mocks.NewMockFlowEngine(ctrl)
		gomock.InOrder(
			engine.EXPECT().
				RegisterInsertionPoint(gomock.Any(), "clean-flow-1", "clean-flow", 1, "scan-node", gomock.Any()).
				Return(errors.New("engine down")),
			engine.EXPECT().
				RegisterInsertionPoint(gomock.Any(), "clean-flow-1", "clean-flow", 1, "scan-node", gomock.Any()).
				Return(nil),
		)
		r := flowtask.NewRegistry(engine, 8)
		defer r.Close()

		_, err := r.GetOrCreate(ctx, "clean-flow", 1, "scan-node")
		So(err, ShouldNotBeNil)
		p, err := r.GetOrCreate(ctx, "clean-flow", 1, "scan-node")
		So(err, ShouldBeNil)
		So(p, ShouldNotBeNil)
	})
}
