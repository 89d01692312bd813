package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	reportRestyRequest  = "resty.request"
	reportRestyResponse = "resty.response"
)

type instrumentResty struct {
	tel       API
	idcounter *uint64
}

// InstrumentResty reports every request, response and transport error of
// client to tel.
func InstrumentResty(client *resty.Client, tel API) {
	var idcounter uint64
	i := instrumentResty{tel: tel, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	id := atomic.AddUint64(i.idcounter, 1)
	ctx := context.WithValue(req.Context(), reqCtxKey, reqCtx{id: id, startTime: time.Now()})
	i.tel.ReportDebug(reportRestyRequest, id, req.Method, req.URL)
	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	rc, ok := res.Request.Context().Value(reqCtxKey).(reqCtx)
	if !ok {
		return nil
	}
	i.tel.ReportDebug(reportRestyResponse, rc.id, time.Since(rc.startTime).String(), res.Status())
	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	var elapsed time.Duration
	if rc, ok := req.Context().Value(reqCtxKey).(reqCtx); ok {
		elapsed = time.Since(rc.startTime)
	}
	i.tel.ReportWarning(reportRestyResponse, err, req.Method, req.URL, elapsed)
}
