package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

const holdingsCSV = `PortfolioName,SecName,SecurityTypeName,Qty,Price,MV_Local,MV_Base,PL_YTD,PL_QTD,PL_MTD,PL_DTD,Strategy1RefShortName,CustodianName,DirectionName,AsOfDate,OpenDate,CloseDate
Ytum,Apple Inc,Equity,"1,000",185.5,185500,185500,36870008,120000,30000,1000,Growth,StateStreet,Long,31/12/23,15/03/21,NULL
Ytum,US Treasury,Bond,500,99.1,49550,49550,12000,4000,1000,100,Macro,StateStreet,Long,31/12/23,01/02/22,NULL
MNC,Tesla Inc,Equity,200,240.0,48000,48000,25644174,90000,20000,500,Growth,BNY,Short,31/12/23,10/06/22,NULL
`

const tradesCSV = `PortfolioName,Name,SecurityType,TradeTypeName,Quantity,Price,Principal,TotalCash,AllocationCash,TradeDate,SettleDate,Strategy1Name,CustodianName,Counterparty
Ytum,Apple Inc,Equity,Buy,100,180.25,18025,18050,18050,15/11/23,17/11/23,Growth,StateStreet,GS
MNC,Tesla Inc,Equity,Sell,50,239.0,11950,11940,11940,20/11/23,22/11/23,Growth,BNY,MS
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBuildsStoreFromCSV(t *testing.T) {
	store, err := Load(
		writeFile(t, "holdings.csv", holdingsCSV),
		writeFile(t, "trades.csv", tradesCSV),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"MNC", "Ytum"}, store.DistinctFunds())
	assert.Len(t, store.Holdings(), 3)
	assert.Len(t, store.Trades(), 2)

	summary := store.Summary()
	assert.Equal(t, 2, summary.FundCount)
	assert.Equal(t, 3, summary.HoldingsRows)
	assert.Equal(t, 2, summary.TradesRows)
	assert.Equal(t, 1, summary.BuyTrades)
	assert.Equal(t, 1, summary.SellTrades)
}

func TestLoadParsesHoldingFields(t *testing.T) {
	store, err := Load(
		writeFile(t, "holdings.csv", holdingsCSV),
		writeFile(t, "trades.csv", tradesCSV),
	)
	require.NoError(t, err)

	h := store.HoldingsFor("Ytum")[0]
	assert.Equal(t, "Apple Inc", h.SecName)
	assert.Equal(t, "Equity", h.SecurityType)
	assert.Equal(t, 1000.0, h.Qty, "grouped quantity must parse")
	assert.Equal(t, 36870008.0, h.PLYTD)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), h.AsOfDate)
	assert.Equal(t, "Open", h.CloseDate, "NULL close date falls back to Open")
}

func TestLoadParsesTradeFields(t *testing.T) {
	store, err := Load(
		writeFile(t, "holdings.csv", holdingsCSV),
		writeFile(t, "trades.csv", tradesCSV),
	)
	require.NoError(t, err)

	tr := store.TradesFor("MNC")[0]
	assert.Equal(t, "Tesla Inc", tr.SecurityName)
	assert.Equal(t, "Sell", tr.TradeType)
	assert.Equal(t, 11950.0, tr.Principal)
	assert.Equal(t, "20/11/23", tr.TradeDate)
	assert.Equal(t, "MS", tr.Counterparty)
}

func TestLoadFailsWithoutFundColumn(t *testing.T) {
	badHoldings := "SecName,Qty\nApple Inc,100\n"

	_, err := Load(
		writeFile(t, "holdings.csv", badHoldings),
		writeFile(t, "trades.csv", tradesCSV),
	)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrMalformedInput))
}

func TestLoadFailsOnEmptyFundCell(t *testing.T) {
	badTrades := "PortfolioName,Name\n,Apple Inc\n"

	_, err := Load(
		writeFile(t, "holdings.csv", holdingsCSV),
		writeFile(t, "trades.csv", badTrades),
	)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrMalformedInput))
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), writeFile(t, "trades.csv", tradesCSV))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrMalformedInput))
}

func TestNumericDefaultsToZero(t *testing.T) {
	holdings := `PortfolioName,SecName,PL_YTD
Ytum,Apple Inc,not-a-number
`
	store, err := Load(
		writeFile(t, "holdings.csv", holdings),
		writeFile(t, "trades.csv", tradesCSV),
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, store.HoldingsFor("Ytum")[0].PLYTD)
}
