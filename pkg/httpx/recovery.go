package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

// Recovery turns a handler panic into a 500 response and logs the stack.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slogx.FromContext(r.Context()).Error("panic serving request",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			shopsdk.ErrServer.WriteError(w)
		}()
		next.ServeHTTP(w, r)
	})
}
