package models

// TopBrokerRow is one (buyer broker, stock) group of a day's trades.
//
// Written to top_broker/top_broker_<date>/top_broker_by_stock.csv.
type TopBrokerRow struct {
	Broker   string `csv:"Broker"`
	Stock    string `csv:"Stock"`
	Volume   int64  `csv:"Volume"`
	Value    Money  `csv:"Value"`
	AvgPrice Money  `csv:"AvgPrice"`
	Count    int64  `csv:"Count"`
}

// ComprehensiveBrokerRow summarises one broker's whole trading day.
//
// Column contract consumed downstream: the Seller* columns carry the broker's
// buy-side totals and the Buyer* columns carry its sell-side totals. Net* is
// buy-side minus sell-side and Total* is the sum of both sides. Do not "fix"
// the swap; the dashboard reads the columns this way.
//
// Written to top_broker/top_broker_<date>/top_broker.csv.
type ComprehensiveBrokerRow struct {
	Broker      string `csv:"Broker"`
	TotalVol    int64  `csv:"TotalVol"`
	TotalValue  Money  `csv:"TotalValue"`
	TotalFreq   int64  `csv:"TotalFreq"`
	NetVol      int64  `csv:"NetVol"`
	NetValue    Money  `csv:"NetValue"`
	NetFreq     int64  `csv:"NetFreq"`
	SellerVol   int64  `csv:"SellerVol"`
	SellerValue Money  `csv:"SellerValue"`
	SellerFreq  int64  `csv:"SellerFreq"`
	BuyerVol    int64  `csv:"BuyerVol"`
	BuyerValue  Money  `csv:"BuyerValue"`
	BuyerFreq   int64  `csv:"BuyerFreq"`
}

// BrokerSummaryRow is one broker's activity in a single stock and segment.
//
// Written to broker_summary_<segment>/broker_summary_<segment>_<date>/<stock>.csv.
type BrokerSummaryRow struct {
	Broker    string `csv:"Broker"`
	BuyVol    int64  `csv:"BuyVol"`
	BuyValue  Money  `csv:"BuyValue"`
	BuyAvg    Money  `csv:"BuyAvg"`
	BuyFreq   int64  `csv:"BuyFreq"`
	SellVol   int64  `csv:"SellVol"`
	SellValue Money  `csv:"SellValue"`
	SellAvg   Money  `csv:"SellAvg"`
	SellFreq  int64  `csv:"SellFreq"`
	NetVol    int64  `csv:"NetVol"`
	NetValue  Money  `csv:"NetValue"`
}

// BrokerTransactionRow is one stock traded by a single broker in a segment.
//
// Written to broker_transaction_<segment>/broker_transaction_<segment>_<date>/<broker>.csv.
type BrokerTransactionRow struct {
	Stock      string `csv:"Stock"`
	BuyVol     int64  `csv:"BuyVol"`
	BuyValue   Money  `csv:"BuyValue"`
	BuyAvg     Money  `csv:"BuyAvg"`
	BuyFreq    int64  `csv:"BuyFreq"`
	SellVol    int64  `csv:"SellVol"`
	SellValue  Money  `csv:"SellValue"`
	SellAvg    Money  `csv:"SellAvg"`
	SellFreq   int64  `csv:"SellFreq"`
	NetVol     int64  `csv:"NetVol"`
	NetValue   Money  `csv:"NetValue"`
	TotalVol   int64  `csv:"TotalVol"`
	TotalValue Money  `csv:"TotalValue"`
	TotalFreq  int64  `csv:"TotalFreq"`
}

// SegmentManifestRow counts the files a segment produced for a date. The
// manifest holds one row per known segment, zero counts included, and is the
// last file written for the date.
//
// Written to broker_summary_manifest/broker_summary_manifest_<date>.csv.
type SegmentManifestRow struct {
	Segment      string `csv:"Segment"`
	Summaries    int    `csv:"Summaries"`
	Transactions int    `csv:"Transactions"`
}
