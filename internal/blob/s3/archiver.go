package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// SettlementArchiver uploads settlement reports to object storage as
// pretty-printed JSON, one object per fixture, and records the archival in
// the audit log. It satisfies the engine's report sink.
type SettlementArchiver struct {
	writer domain.BlobWriter
	audit  domain.AuditStore
}

// NewSettlementArchiver creates a SettlementArchiver. audit may be nil.
func NewSettlementArchiver(writer domain.BlobWriter, audit domain.AuditStore) *SettlementArchiver {
	return &SettlementArchiver{writer: writer, audit: audit}
}

// reportPath builds the S3 key for a settlement report, partitioned by the
// year-month of settlement.
//
//	reports/settlements/2026-08/1234.json
func reportPath(report domain.SettlementReport) string {
	return fmt.Sprintf("reports/settlements/%s/%s.json",
		report.SettledAt.Format("2006-01"), report.FixtureID)
}

// ArchiveSettlement serializes and uploads one settlement report.
func (a *SettlementArchiver) ArchiveSettlement(ctx context.Context, report domain.SettlementReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal settlement report %s: %w", report.FixtureID, err)
	}

	path := reportPath(report)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: upload settlement report %s: %w", report.FixtureID, err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.settlement", map[string]any{
			"fixture_id": string(report.FixtureID),
			"path":       path,
		}); err != nil {
			return fmt.Errorf("s3blob: settlement report audit log: %w", err)
		}
	}
	return nil
}
