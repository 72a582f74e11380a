package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"wb-tariff-sync/internal/domain"
)

// ErrPublish is returned (wrapped, per target) when writing to a
// spreadsheet fails.
var ErrPublish = errors.New("sheet publish failed")

// headerRow is written above the data on every publish. Column order is
// fixed and matched by rowValues below.
var headerRow = []interface{}{
	"Склад",
	"ID склада",
	"Доставка коробов (база)",
	"Доставка коробов (за литр)",
	"Хранение коробов (база)",
	"Хранение коробов (за литр)",
	"Коэффициент",
	"Дата",
}

// valueWriter abstracts the spreadsheet values API so the publish loop is
// testable without Google credentials.
type valueWriter interface {
	clear(ctx context.Context, spreadsheetID, cellRange string) error
	update(ctx context.Context, spreadsheetID, cellRange string, values [][]interface{}) error
}

// googleWriter implements valueWriter over the Sheets v4 API.
type googleWriter struct {
	svc *sheetsapi.Service
}

func (g *googleWriter) clear(ctx context.Context, spreadsheetID, cellRange string) error {
	_, err := g.svc.Spreadsheets.Values.
		Clear(spreadsheetID, cellRange, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (g *googleWriter) update(ctx context.Context, spreadsheetID, cellRange string, values [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.
		Update(spreadsheetID, cellRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

// Target is one spreadsheet destination with its own service credential.
type Target struct {
	SpreadsheetID string
	Range         string
	writer        valueWriter
}

// NewTarget builds a publish target authenticated with the given service
// account credentials JSON.
func NewTarget(ctx context.Context, spreadsheetID, cellRange string, credentialsJSON []byte) (*Target, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service for %s: %w", spreadsheetID, err)
	}
	return &Target{
		SpreadsheetID: spreadsheetID,
		Range:         cellRange,
		writer:        &googleWriter{svc: svc},
	}, nil
}

// Publisher writes the same projected row set to every configured target.
type Publisher struct {
	targets []*Target
	log     *zap.Logger
}

// NewPublisher creates a Publisher over one or more targets.
func NewPublisher(targets []*Target, log *zap.Logger) *Publisher {
	return &Publisher{targets: targets, log: log.Named("sheets")}
}

// PublishAll clears and rewrites every target with the given rows. Failures
// are isolated per target: one bad spreadsheet never prevents attempting the
// others. The returned error aggregates all per-target failures; nil means
// every target succeeded.
func (p *Publisher) PublishAll(ctx context.Context, rows []domain.SheetRow) error {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, headerRow)
	for _, row := range rows {
		values = append(values, rowValues(row))
	}

	var result *multierror.Error
	for _, target := range p.targets {
		if err := publishOne(ctx, target, values); err != nil {
			p.log.Error("failed to update spreadsheet",
				zap.String("spreadsheet_id", target.SpreadsheetID),
				zap.Error(err))
			result = multierror.Append(result,
				fmt.Errorf("target %s: %w: %v", target.SpreadsheetID, ErrPublish, err))
			continue
		}
		p.log.Info("updated spreadsheet",
			zap.String("spreadsheet_id", target.SpreadsheetID),
			zap.Int("rows", len(rows)))
	}
	return result.ErrorOrNil()
}

// TargetCount reports how many targets are configured.
func (p *Publisher) TargetCount() int {
	return len(p.targets)
}

// publishOne clears the range, then writes header plus data rows.
func publishOne(ctx context.Context, target *Target, values [][]interface{}) error {
	if err := target.writer.clear(ctx, target.SpreadsheetID, target.Range); err != nil {
		return fmt.Errorf("clear range: %w", err)
	}
	if err := target.writer.update(ctx, target.SpreadsheetID, target.Range, values); err != nil {
		return fmt.Errorf("write values: %w", err)
	}
	return nil
}

// rowValues flattens a SheetRow in the fixed column order.
func rowValues(row domain.SheetRow) []interface{} {
	return []interface{}{
		row.WarehouseName,
		row.WarehouseID,
		row.BoxDeliveryBase,
		row.BoxDeliveryLiter,
		row.BoxStorageBase,
		row.BoxStorageLiter,
		row.Coefficient,
		row.Date,
	}
}
