package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"marketpulse/internal/market"
	"marketpulse/internal/stats"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Report overwrites a plain-text summary of the derived statistics.
type Report struct {
	Path string
}

func NewReport(path string) *Report {
	return &Report{Path: path}
}

func (r *Report) Name() string { return "report" }

// Render formats the statistics. The output depends only on st.
func (r *Report) Render(st stats.Statistics) string {
	var b strings.Builder

	b.WriteString("Crypto Analysis Report\n")
	b.WriteString("======================\n\n")

	fmt.Fprintf(&b, "Top %d Cryptocurrencies by Market Cap:\n", len(st.TopByMarketCap))
	rows := make([][2]string, len(st.TopByMarketCap))
	for i, rk := range st.TopByMarketCap {
		rows[i] = [2]string{rk.Name, strconv.FormatFloat(rk.MarketCap, 'f', -1, 64)}
	}
	writeTable(&b, [2]string{"name", "market_cap"}, rows...)

	fmt.Fprintf(&b, "\nAverage Price of Top %d Cryptocurrencies: $%s\n",
		st.Count, decimal.NewFromFloat(st.AveragePrice).StringFixed(2))

	b.WriteString("\nHighest 24-hour Percentage Change:\n")
	writeTable(&b, changeHeader, changeRow(st.MaxChange))

	b.WriteString("\nLowest 24-hour Percentage Change:\n")
	writeTable(&b, changeHeader, changeRow(st.MinChange))

	return b.String()
}

// Publish replaces the report file. The new content is written to a
// temporary file and renamed over the target, so a failed write leaves the
// previous report in place.
func (r *Report) Publish(ctx context.Context, st stats.Statistics) error {
	if err := ctx.Err(); err != nil {
		return &market.PublishError{Sink: r.Name(), Err: err}
	}
	if err := writeFileAtomic(r.Path, []byte(r.Render(st))); err != nil {
		return &market.PublishError{Sink: r.Name(), Err: err}
	}
	return nil
}

var changeHeader = [2]string{"name", "price_change_percentage_24h"}

func changeRow(c stats.Change) [2]string {
	return [2]string{c.Name, decimal.NewFromFloat(c.PriceChangePercentage24h).StringFixed(2)}
}

func writeTable(b *strings.Builder, header [2]string, rows ...[2]string) {
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", header[0], header[1])
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush() // strings.Builder never fails
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	// no-op once renamed
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}
