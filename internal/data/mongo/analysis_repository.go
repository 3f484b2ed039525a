package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/property-report-ledger/internal/domain/report"
)

const (
	// AnalysisCollectionName is the name of the generated analysis collection in MongoDB
	AnalysisCollectionName = "report_analyses"
)

// AnalysisRepository implements report.AnalysisRepository for MongoDB
type AnalysisRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAnalysisRepository creates a new MongoDB analysis repository
func NewAnalysisRepository(logger *slog.Logger, db *mongo.Database) *AnalysisRepository {
	return &AnalysisRepository{
		db:     db,
		logger: logger,
	}
}

var _ report.AnalysisRepository = (*AnalysisRepository)(nil)

// EnsureIndexes creates the unique report_id index
func (r *AnalysisRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(AnalysisCollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "report_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		r.logger.Error("Failed to create analysis indexes", "error", err)
		return fmt.Errorf("failed to create analysis indexes: %w", err)
	}

	return nil
}

// Save stores the analysis, replacing any earlier document for the same report.
// A retried generation therefore never leaves two documents behind.
func (r *AnalysisRepository) Save(ctx context.Context, analysis *report.Analysis) error {
	collection := r.db.Collection(AnalysisCollectionName)

	filter := bson.M{"report_id": analysis.ReportID}
	opts := options.Replace().SetUpsert(true)

	if _, err := collection.ReplaceOne(ctx, filter, analysis, opts); err != nil {
		r.logger.Error("Failed to save analysis",
			"report_id", analysis.ReportID.String(),
			"error", err)
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetByReportID returns ErrAnalysisNotFound when no document exists
func (r *AnalysisRepository) GetByReportID(ctx context.Context, reportID uuid.UUID) (*report.Analysis, error) {
	collection := r.db.Collection(AnalysisCollectionName)

	var analysis report.Analysis
	err := collection.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&analysis)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, report.ErrAnalysisNotFound{ReportID: reportID}
		}
		r.logger.Error("Failed to get analysis",
			"report_id", reportID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return &analysis, nil
}
