package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePage(t *testing.T) {
	before := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("detail", "ok"))
	beforeBytes := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("detail"))

	ObservePage("detail", "ok", 128)
	ObservePage("detail", "ok", 0)

	if got := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("detail", "ok")) - before; got != 2 {
		t.Errorf("expected 2 detail pages, got %f", got)
	}
	if got := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("detail")) - beforeBytes; got != 128 {
		t.Errorf("expected 128 bytes, got %f", got)
	}
}

func TestObserveIngest(t *testing.T) {
	offered := testutil.ToFloat64(ingestItemsOfferedTotal)
	inserted := testutil.ToFloat64(ingestItemsInsertedTotal)

	ObserveIngest(5, 4)

	if got := testutil.ToFloat64(ingestItemsOfferedTotal) - offered; got != 5 {
		t.Errorf("expected 5 offered, got %f", got)
	}
	if got := testutil.ToFloat64(ingestItemsInsertedTotal) - inserted; got != 4 {
		t.Errorf("expected 4 inserted, got %f", got)
	}
}

func TestObserveSkipAndWait(t *testing.T) {
	before := testutil.ToFloat64(crawlerRecordsSkippedTotal.WithLabelValues("missing-title"))
	ObserveSkip("missing-title")
	ObserveRateGateWait(50 * time.Millisecond)
	if got := testutil.ToFloat64(crawlerRecordsSkippedTotal.WithLabelValues("missing-title")) - before; got != 1 {
		t.Errorf("expected 1 skip, got %f", got)
	}
}
