package output

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/storage"
)

func read(t *testing.T, s storage.ObjectStore, key string) string {
	t.Helper()
	rc, err := s.Download(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestWrite_SerialisesRowsWithHeader(t *testing.T) {
	store := storage.NewFSStore(afero.NewMemMapFs())
	w := NewWriter(store)

	rows := []models.TopBrokerRow{{
		Broker:   "BRK2",
		Stock:    "ABCD",
		Volume:   150,
		Value:    models.NewMoney(decimal.NewFromInt(2000)),
		AvgPrice: models.NewMoney(decimal.RequireFromString("13.5")),
		Count:    2,
	}}

	key, err := Write(context.Background(), w, TopBrokerByStockPath("20240102"), rows)
	require.NoError(t, err)
	assert.Equal(t, "top_broker/top_broker_20240102/top_broker_by_stock.csv", key)

	lines := strings.Split(strings.TrimSpace(read(t, store, key)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Broker,Stock,Volume,Value,AvgPrice,Count", lines[0])
	assert.Equal(t, "BRK2,ABCD,150,2000,13.5,2", lines[1])
}

func TestWrite_EmptyRowsIsNoop(t *testing.T) {
	store := storage.NewFSStore(afero.NewMemMapFs())
	w := NewWriter(store)
	key := TopBrokerPath("20240102")

	got, err := Write[models.ComprehensiveBrokerRow](context.Background(), w, key, nil)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	ok, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok, "no artifact is written for empty rows")
}

type failingStore struct{ storage.ObjectStore }

func (failingStore) Upload(context.Context, string, []byte, string) error {
	return errors.New("bucket gone")
}

func TestWrite_PropagatesUploadError(t *testing.T) {
	w := NewWriter(failingStore{})
	_, err := Write(context.Background(), w, "k.csv", []models.BrokerSummaryRow{{Broker: "X"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestPaths(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"top broker by stock", TopBrokerByStockPath("20240102"), "top_broker/top_broker_20240102/top_broker_by_stock.csv"},
		{"top broker", TopBrokerPath("20240102"), "top_broker/top_broker_20240102/top_broker.csv"},
		{"summary dir", BrokerSummaryDir(models.SegmentRegular, "20240102"), "broker_summary_rk/broker_summary_rk_20240102/"},
		{"summary", BrokerSummaryPath(models.SegmentCash, "20240102", "ABCD"), "broker_summary_tn/broker_summary_tn_20240102/ABCD.csv"},
		{"manifest", SegmentManifestPath("20240102"), "broker_summary_manifest/broker_summary_manifest_20240102.csv"},
		{"transaction", BrokerTransactionPath(models.SegmentNegotiated, "20240102", "YP"), "broker_transaction_ng/broker_transaction_ng_20240102/YP.csv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}
