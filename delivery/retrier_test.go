package delivery

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		res       Result
		wantStat  Status
		wantRetry bool
	}{
		{"2xx delivered", Result{StatusCode: 200}, StatusDelivered, false},
		{"201 delivered", Result{StatusCode: 201}, StatusDelivered, false},
		{"4xx terminal", Result{StatusCode: 400}, StatusFailed, false},
		{"404 terminal", Result{StatusCode: 404}, StatusFailed, false},
		{"5xx retryable", Result{StatusCode: 500}, StatusFailed, true},
		{"503 retryable", Result{StatusCode: 503}, StatusFailed, true},
		{"timeout retryable", Result{TimedOut: true}, StatusTimeout, true},
		{"transport error retryable", Result{}, StatusFailed, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.res)
			if got.Status != tc.wantStat {
				t.Fatalf("Status = %v, want %v", got.Status, tc.wantStat)
			}
			if got.Retryable != tc.wantRetry {
				t.Fatalf("Retryable = %v, want %v", got.Retryable, tc.wantRetry)
			}
		})
	}
}

func TestClampListOptsDefaults(t *testing.T) {
	opts := ClampListOpts(ListOpts{})
	if opts.Limit != 20 {
		t.Fatalf("Limit = %d, want 20", opts.Limit)
	}
}

func TestClampListOptsMax(t *testing.T) {
	opts := ClampListOpts(ListOpts{Limit: 5000})
	if opts.Limit != 1000 {
		t.Fatalf("Limit = %d, want 1000", opts.Limit)
	}
}
