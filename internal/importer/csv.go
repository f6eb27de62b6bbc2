package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/model"
)

// Transaction columns.
const (
	txnNumFields   = 7
	txnColDate     = 0
	txnColType     = 1
	txnColUser     = 2
	txnColGroup    = 3
	txnColCurrency = 4
	txnColNet      = 5
	txnColHostFee  = 6
)

// Tier columns.
const (
	tierNumFields    = 12
	tierColSlug      = 0
	tierColName      = 1
	tierColDesc      = 2
	tierColType      = 3
	tierColAmount    = 4
	tierColCurrency  = 5
	tierColMax       = 6
	tierColMaxByUser = 7
	tierColGoal      = 8
	tierColEvent     = 9
	tierColStarts    = 10
	tierColEnds      = 11
)

// Rate columns.
const (
	rateNumFields = 4
	rateColFrom   = 0
	rateColTo     = 1
	rateColRate   = 2
	rateColDate   = 3
)

var (
	transactionHeader = []string{"created_at", "type", "user_id", "group_id", "currency", "net_amount", "host_fee"}
	tierHeader        = []string{"slug", "name", "description", "type", "amount", "currency", "max_quantity", "max_quantity_per_user", "goal", "event_id", "starts_at", "ends_at"}
	rateHeader        = []string{"from", "to", "rate", "effective_at"}
)

// ReadTransactions reads a transactions CSV. The first row is a header.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	records, err := readRecords(r, txnNumFields)
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	var txns []model.Transaction
	for i, rec := range records {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes a transactions CSV with its header.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	rows := make([][]string, len(txns))
	for i, txn := range txns {
		rows[i] = MarshalTransaction(txn)
	}
	return writeRecords(w, transactionHeader, rows)
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, txnNumFields)
	row[txnColDate] = formatTime(txn.CreatedAt)
	row[txnColType] = string(txn.Type)
	row[txnColUser] = strconv.FormatUint(uint64(txn.UserID), 10)
	row[txnColGroup] = strconv.FormatUint(uint64(txn.GroupID), 10)
	row[txnColCurrency] = txn.Currency
	row[txnColNet] = strconv.FormatInt(txn.NetAmountInGroupCurrency, 10)
	row[txnColHostFee] = strconv.FormatInt(txn.HostFeeInTxnCurrency, 10)
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(rec []string) (model.Transaction, error) {
	if len(rec) != txnNumFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", txnNumFields, len(rec))
	}
	createdAt, err := parseTime(rec[txnColDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing created_at %q: %w", rec[txnColDate], err)
	}
	userID, err := parseID(rec[txnColUser])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing user_id %q: %w", rec[txnColUser], err)
	}
	groupID, err := parseID(rec[txnColGroup])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing group_id %q: %w", rec[txnColGroup], err)
	}
	net, err := parseCents(rec[txnColNet])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing net_amount %q: %w", rec[txnColNet], err)
	}
	fee, err := parseCents(rec[txnColHostFee])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing host_fee %q: %w", rec[txnColHostFee], err)
	}

	typ := model.TransactionType(rec[txnColType])
	switch typ {
	case model.TypeDonation, model.TypeExpense:
	default:
		return model.Transaction{}, fmt.Errorf("unknown transaction type %q", rec[txnColType])
	}

	return model.Transaction{
		Type:                     typ,
		UserID:                   userID,
		GroupID:                  groupID,
		Currency:                 model.NormalizeCurrency(rec[txnColCurrency]),
		NetAmountInGroupCurrency: net,
		HostFeeInTxnCurrency:     fee,
		CreatedAt:                createdAt,
	}, nil
}

// ReadTiers reads a tiers CSV. Empty cells leave the field at its zero value.
func ReadTiers(r io.Reader) ([]model.Tier, error) {
	records, err := readRecords(r, tierNumFields)
	if err != nil {
		return nil, fmt.Errorf("reading tiers CSV: %w", err)
	}
	var tiers []model.Tier
	for i, rec := range records {
		t, err := UnmarshalTier(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		tiers = append(tiers, t)
	}
	return tiers, nil
}

// WriteTiers writes a tiers CSV with its header.
func WriteTiers(w io.Writer, tiers []model.Tier) error {
	rows := make([][]string, len(tiers))
	for i, t := range tiers {
		rows[i] = MarshalTier(t)
	}
	return writeRecords(w, tierHeader, rows)
}

// MarshalTier converts a Tier to a CSV row. The password is never written.
func MarshalTier(t model.Tier) []string {
	row := make([]string, tierNumFields)
	row[tierColSlug] = t.Slug
	row[tierColName] = t.Name
	row[tierColDesc] = t.Description
	row[tierColType] = string(t.Type)
	row[tierColAmount] = strconv.FormatInt(t.Amount, 10)
	row[tierColCurrency] = t.Currency
	row[tierColMax] = strconv.FormatInt(t.MaxQuantity, 10)
	row[tierColMaxByUser] = strconv.FormatInt(t.MaxQuantityPerUser, 10)
	row[tierColGoal] = strconv.FormatInt(t.Goal, 10)
	if t.EventID != nil {
		row[tierColEvent] = strconv.FormatUint(uint64(*t.EventID), 10)
	}
	if !t.StartsAt.IsZero() {
		row[tierColStarts] = formatTime(t.StartsAt)
	}
	if !t.EndsAt.IsZero() {
		row[tierColEnds] = formatTime(t.EndsAt)
	}
	return row
}

// UnmarshalTier converts a CSV row to a Tier.
func UnmarshalTier(rec []string) (model.Tier, error) {
	if len(rec) != tierNumFields {
		return model.Tier{}, fmt.Errorf("expected %d fields, got %d", tierNumFields, len(rec))
	}
	t := model.Tier{
		Slug:        rec[tierColSlug],
		Name:        rec[tierColName],
		Description: rec[tierColDesc],
		Type:        model.TierType(rec[tierColType]),
		Currency:    rec[tierColCurrency],
	}

	ints := []struct {
		col  int
		name string
		dst  *int64
	}{
		{tierColAmount, "amount", &t.Amount},
		{tierColMax, "max_quantity", &t.MaxQuantity},
		{tierColMaxByUser, "max_quantity_per_user", &t.MaxQuantityPerUser},
		{tierColGoal, "goal", &t.Goal},
	}
	for _, f := range ints {
		if rec[f.col] == "" {
			continue
		}
		v, err := strconv.ParseInt(rec[f.col], 10, 64)
		if err != nil {
			return model.Tier{}, fmt.Errorf("parsing %s %q: %w", f.name, rec[f.col], err)
		}
		*f.dst = v
	}

	if rec[tierColEvent] != "" {
		id, err := parseID(rec[tierColEvent])
		if err != nil {
			return model.Tier{}, fmt.Errorf("parsing event_id %q: %w", rec[tierColEvent], err)
		}
		t.EventID = &id
	}
	var err error
	if rec[tierColStarts] != "" {
		if t.StartsAt, err = parseTime(rec[tierColStarts]); err != nil {
			return model.Tier{}, fmt.Errorf("parsing starts_at %q: %w", rec[tierColStarts], err)
		}
	}
	if rec[tierColEnds] != "" {
		if t.EndsAt, err = parseTime(rec[tierColEnds]); err != nil {
			return model.Tier{}, fmt.Errorf("parsing ends_at %q: %w", rec[tierColEnds], err)
		}
	}
	return t, nil
}

// ReadRates reads an exchange rates CSV.
func ReadRates(r io.Reader) ([]model.ExchangeRate, error) {
	records, err := readRecords(r, rateNumFields)
	if err != nil {
		return nil, fmt.Errorf("reading rates CSV: %w", err)
	}
	var rates []model.ExchangeRate
	for i, rec := range records {
		rate, err := UnmarshalRate(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

// WriteRates writes an exchange rates CSV with its header.
func WriteRates(w io.Writer, rates []model.ExchangeRate) error {
	rows := make([][]string, len(rates))
	for i, r := range rates {
		rows[i] = MarshalRate(r)
	}
	return writeRecords(w, rateHeader, rows)
}

// MarshalRate converts an ExchangeRate to a CSV row.
func MarshalRate(r model.ExchangeRate) []string {
	row := make([]string, rateNumFields)
	row[rateColFrom] = r.FromCurrency
	row[rateColTo] = r.ToCurrency
	row[rateColRate] = r.Rate.String()
	row[rateColDate] = formatTime(r.EffectiveAt)
	return row
}

// UnmarshalRate converts a CSV row to an ExchangeRate.
func UnmarshalRate(rec []string) (model.ExchangeRate, error) {
	if len(rec) != rateNumFields {
		return model.ExchangeRate{}, fmt.Errorf("expected %d fields, got %d", rateNumFields, len(rec))
	}
	rate, err := decimal.NewFromString(rec[rateColRate])
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("parsing rate %q: %w", rec[rateColRate], err)
	}
	if !rate.IsPositive() {
		return model.ExchangeRate{}, fmt.Errorf("rate must be positive, got %s", rate)
	}
	at, err := parseTime(rec[rateColDate])
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("parsing effective_at %q: %w", rec[rateColDate], err)
	}
	return model.ExchangeRate{
		FromCurrency: model.NormalizeCurrency(rec[rateColFrom]),
		ToCurrency:   model.NormalizeCurrency(rec[rateColTo]),
		Rate:         rate,
		EffectiveAt:  at,
	}, nil
}

// readRecords reads every row and drops the header.
func readRecords(r io.Reader, numFields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

func writeRecords(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseTime accepts a bare date (UTC midnight) or an RFC 3339 timestamp.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(config.DateFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// formatTime writes midnight UTC as a bare date.
func formatTime(t time.Time) string {
	t = t.UTC()
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format(config.DateFormat)
	}
	return t.Format(time.RFC3339)
}

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 0)
	return uint(v), err
}

func parseCents(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
