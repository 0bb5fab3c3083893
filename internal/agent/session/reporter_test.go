package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/pkg/errorx"
)

type fakeDurations struct {
	mu      sync.Mutex
	reports []request.DurationReportRequest
	errs    []error
}

func (f *fakeDurations) ReportDuration(_ context.Context, req request.DurationReportRequest) (*respond.DurationReportRespond, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &respond.DurationReportRespond{Success: true}, nil
}

func (f *fakeDurations) all() []request.DurationReportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request.DurationReportRequest(nil), f.reports...)
}

func TestReportRetriesTransientOnce(t *testing.T) {
	d := &fakeDurations{errs: []error{errorx.New(errorx.CodeTimeout, "timeout"), errorx.New(errorx.CodeNetwork, "reset")}}
	res := NewReporter(d, time.Second).Report(context.Background(), "room-42", 12)

	assert.False(t, res.Success)
	assert.Equal(t, "network_error", res.ErrorKind)
	assert.Len(t, d.all(), 2)
}

func TestReportDoesNotRetryValidation(t *testing.T) {
	d := &fakeDurations{errs: []error{errorx.New(errorx.CodeForbidden, "不是会话参与者")}}
	res := NewReporter(d, time.Second).Report(context.Background(), "room-42", 12)

	assert.Equal(t, "forbidden", res.ErrorKind)
	assert.Len(t, d.all(), 1)
}

func TestReportTreatsDuplicateAsDone(t *testing.T) {
	d := &fakeDurations{errs: []error{errorx.New(errorx.CodeTimeout, "timeout"), errorx.New(errorx.CodeDuplicateRequest, "该会话时长已上报")}}
	res := NewReporter(d, time.Second).Report(context.Background(), "room-42", 12)

	assert.True(t, res.Success)
	assert.Equal(t, []request.DurationReportRequest{{SessionId: "room-42", Seconds: 12}, {SessionId: "room-42", Seconds: 12}}, d.all())
}
