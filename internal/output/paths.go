package output

import (
	"fmt"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// TopBrokerByStockPath is the key artifact of the top-broker pipeline.
func TopBrokerByStockPath(date string) string {
	return fmt.Sprintf("top_broker/top_broker_%s/top_broker_by_stock.csv", date)
}

func TopBrokerPath(date string) string {
	return fmt.Sprintf("top_broker/top_broker_%s/top_broker.csv", date)
}

// BrokerSummaryDir is the folder holding every per-stock summary of a segment
// and date. It ends in "/" so storage treats it as a prefix.
func BrokerSummaryDir(seg models.Segment, date string) string {
	s := seg.Slug()
	return fmt.Sprintf("broker_summary_%s/broker_summary_%s_%s/", s, s, date)
}

func BrokerSummaryPath(seg models.Segment, date, stock string) string {
	return BrokerSummaryDir(seg, date) + stock + ".csv"
}

// SegmentManifestPath is the key artifact of the segment pipeline. It exists
// once every summary and transaction file of the date is in place.
func SegmentManifestPath(date string) string {
	return fmt.Sprintf("broker_summary_manifest/broker_summary_manifest_%s.csv", date)
}

func BrokerTransactionPath(seg models.Segment, date, broker string) string {
	s := seg.Slug()
	return fmt.Sprintf("broker_transaction_%s/broker_transaction_%s_%s/%s.csv", s, s, date, broker)
}
