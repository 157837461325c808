package importer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
	"github.com/ledgerfeed/ledgerfeed/internal/normalize"
)

var gst = time.FixedZone("GST", 4*60*60)

var testCards = map[string]string{
	"4321": "Visa Platinum",
	"8765": "Mastercard Titanium",
}

func testDirectory(t *testing.T) *accounts.Service {
	t.Helper()
	f, err := os.Open("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	accts, err := accounts.ReadAccounts(f)
	require.NoError(t, err)
	return accounts.NewService(accts)
}

func testContext(t *testing.T, sourceID int) *RunContext {
	t.Helper()
	snap, err := accounts.NewSnapshot(context.Background(), testDirectory(t))
	require.NoError(t, err)
	t.Cleanup(snap.Close)

	src, ok := snap.Asset(sourceID)
	require.True(t, ok, "asset %d", sourceID)
	return &RunContext{
		Source:   src,
		Accounts: snap,
		Names:    normalize.New(nil),
		Cards:    testCards,
		Currency: "AED",
		Location: gst,
		Language: "en",
	}
}

func parseFixture(t *testing.T, a Adapter, name string) []Record {
	t.Helper()
	f, err := os.Open("../../testdata/" + name)
	require.NoError(t, err)
	defer f.Close()

	recs, err := a.Parse(f)
	require.NoError(t, err)
	return recs
}

func byLine(t *testing.T, recs []Record, line int) Record {
	t.Helper()
	for _, r := range recs {
		if r.Line() == line {
			return r
		}
	}
	t.Fatalf("no record at line %d", line)
	return nil
}

func mapLine(t *testing.T, a Adapter, rc *RunContext, recs []Record, line int) model.Transaction {
	t.Helper()
	tx, err := a.Map(rc, byLine(t, recs, line))
	require.NoError(t, err)
	require.NoError(t, tx.Validate())
	return tx
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, gst)
}
