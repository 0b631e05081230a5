package newrelic

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// StartBackgroundTransaction starts a non-web transaction for work that
// outlives the request that triggered it, such as a dispatch run.
// The returned end func is safe to call when app is nil.
func StartBackgroundTransaction(ctx context.Context, app *newrelic.Application, name string) (context.Context, func()) {
	if app == nil {
		return ctx, func() {}
	}
	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}

// StartSegment opens a segment on the transaction carried by ctx
func StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	return txn.StartSegment(name).End
}

// NoticeError records err on the transaction carried by ctx
func NoticeError(ctx context.Context, err error) {
	if txn := newrelic.FromContext(ctx); txn != nil && err != nil {
		txn.NoticeError(err)
	}
}
