package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPFlowEngine_Errors(t *testing.T) {
	Convey("engine failure responses should surface as errors", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/flow/start", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(CommonResp[string]{Success: false, Message: "flow not found"})
		})
		mux.HandleFunc("/flow/terminate", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("/flow/defByStream", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(CommonResp[*FlowDefinition]{Success: true, Data: nil})
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		api := NewHTTPFlowEngine(StaticAddr(ts.Listener.Addr().String()))
		ctx := context.Background()

		_, err := api.StartFlow(ctx, "nope", 1, nil)
		So(errors.Is(err, ErrEngineResponse), ShouldBeTrue)

		err = api.Terminate(ctx, "tx-1")
		So(err, ShouldNotBeNil)

		_, err = api.ResolveDefinitionByStreamID(ctx, "nope-1")
		So(errors.Is(err, ErrEngineResponse), ShouldBeTrue)
	})
}
