package scheduler

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/flowtask"
	"github.com/mengeric/flowtask-go/storage/memstore"
)

type fakeLister struct{ list []Running }

func (f *fakeLister) ListRunning(ctx context.Context) ([]Running, error) { return f.list, nil }

type captureSink struct{ ch chan client.InstanceProgressReport }

func (s *captureSink) ReportInstanceProgress(ctx context.Context, rep client.InstanceProgressReport) error {
	select {
	case s.ch <- rep:
	default:
	}
	return nil
}

func TestProgressReporter(t *testing.T) {
	Convey("every running instance is reported with its percent and source", t, func() {
		repo := &fakeLister{list: []Running{
			{TaskID: "t1", InstanceID: "i1", Status: "RUNNING", Percent: 42.5},
		}}
		sink := &captureSink{ch: make(chan client.InstanceProgressReport, 8)}
		r := NewReporter(sink, repo, "192.168.1.9:27777", 1)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx)

		select {
		case rep := <-sink.ch:
			So(rep.TaskID, ShouldEqual, "t1")
			So(rep.InstanceID, ShouldEqual, "i1")
			So(rep.Status, ShouldEqual, "RUNNING")
			So(rep.ProgressPercent, ShouldEqual, 42.5)
			So(rep.SourceAddress, ShouldEqual, "192.168.1.9:27777")
			So(rep.ReportTime, ShouldBeGreaterThan, 0)
		case <-time.After(3 * time.Second):
			t.Fatal("no progress report within deadline")
		}
	})
}

func TestStoreLister(t *testing.T) {
	ctx := context.Background()

	Convey("the store adapter surfaces only running instances as report views", t, func() {
		store := memstore.NewInstanceStore()
		So(store.Save(ctx, &flowtask.Instance{
			TaskID: "t1", InstanceID: "i1", Status: flowtask.StatusRunning, ProgressPercent: 33.33,
		}), ShouldBeNil)
		So(store.Save(ctx, &flowtask.Instance{
			TaskID: "t1", InstanceID: "i2", Status: flowtask.StatusArchived, ProgressPercent: 100,
		}), ShouldBeNil)

		list, err := NewStoreLister(store).ListRunning(ctx)
		So(err, ShouldBeNil)
		So(len(list), ShouldEqual, 1)
		So(list[0].TaskID, ShouldEqual, "t1")
		So(list[0].InstanceID, ShouldEqual, "i1")
		So(list[0].Status, ShouldEqual, string(flowtask.StatusRunning))
		So(list[0].Percent, ShouldEqual, 33.33)
	})

	Convey("the adapter feeds the reporter end to end", t, func() {
		store := memstore.NewInstanceStore()
		So(store.Save(ctx, &flowtask.Instance{
			TaskID: "t2", InstanceID: "i9", Status: flowtask.StatusRunning, ProgressPercent: 75,
		}), ShouldBeNil)
		sink := &captureSink{ch: make(chan client.InstanceProgressReport, 8)}
		r := NewReporter(sink, NewStoreLister(store), "192.168.1.9:27777", 1)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		r.Start(ctx)

		select {
		case rep := <-sink.ch:
			So(rep.InstanceID, ShouldEqual, "i9")
			So(rep.ProgressPercent, ShouldEqual, 75)
		case <-time.After(3 * time.Second):
			t.Fatal("no progress report within deadline")
		}
	})
}
