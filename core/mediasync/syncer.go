package mediasync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"catalog-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Gallery is the remote gallery surface a diff is applied against. Concrete
// implementations wrap a storefront or ERP media API.
type Gallery interface {
	// UploadImage pushes the image bytes and returns the remote identifier.
	// The item's Position and FileName travel with the upload.
	UploadImage(ctx context.Context, item Item, data []byte) (string, error)
	DeleteImage(ctx context.Context, externalID string) error
	SetCover(ctx context.Context, externalID string) error
	// UpdatePositions moves already-remote images, remote ID -> new ordinal.
	UpdatePositions(ctx context.Context, updates map[string]int) error
}

// StepError records a single failed remote operation during Apply.
type StepError struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
	Err    error  `json:"-"`
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Detail, e.Err)
}

func (e StepError) Unwrap() error { return e.Err }

func (e StepError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Step   string `json:"step"`
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}{Step: e.Step, Detail: e.Detail, Error: e.Err.Error()})
}

// ApplyReport summarizes what Apply actually did. Uploaded maps local item
// IDs to the remote IDs the gallery handed back; callers persist those as
// image mappings.
type ApplyReport struct {
	Uploaded         map[int64]string `json:"uploaded"`
	Deleted          []string         `json:"deleted"`
	CoverSet         string           `json:"cover_set,omitempty"`
	PositionsUpdated int              `json:"positions_updated"`
	Errors           []StepError      `json:"errors,omitempty"`
}

// Syncer applies a media diff to a remote gallery, reading image bytes from
// object storage. Steps run in a fixed order (delete, upload, cover,
// positions) so deletes free remote slots before uploads and the cover
// pointer only moves once its target exists remotely.
type Syncer struct {
	store  storage.Client
	bucket string
	logger *zap.Logger
}

func NewSyncer(store storage.Client, bucket string, logger *zap.Logger) *Syncer {
	return &Syncer{store: store, bucket: bucket, logger: logger}
}

// Apply executes the diff against the gallery. Individual operation failures
// are collected in the report and never abort the remaining operations; only
// context cancellation stops the run early. An empty diff is a no-op.
func (s *Syncer) Apply(ctx context.Context, diff Diff, gallery Gallery) (ApplyReport, error) {
	report := ApplyReport{Uploaded: make(map[int64]string)}
	if !diff.HasAnyChanges() {
		return report, nil
	}

	for _, img := range diff.ToDelete {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := gallery.DeleteImage(ctx, img.ExternalID); err != nil {
			report.Errors = append(report.Errors, StepError{Step: "delete", Detail: img.ExternalID, Err: err})
			continue
		}
		report.Deleted = append(report.Deleted, img.ExternalID)
	}

	for _, item := range diff.ToUpload {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		externalID, err := s.upload(ctx, item, gallery)
		if err != nil {
			report.Errors = append(report.Errors, StepError{Step: "upload", Detail: item.ObjectKey, Err: err})
			continue
		}
		report.Uploaded[item.ID] = externalID
	}

	if diff.CoverChanged {
		if externalID, ok := s.coverTarget(diff, report); ok {
			if err := gallery.SetCover(ctx, externalID); err != nil {
				report.Errors = append(report.Errors, StepError{Step: "cover", Detail: externalID, Err: err})
			} else {
				report.CoverSet = externalID
			}
		}
	}

	if diff.OrderChanged {
		if err := gallery.UpdatePositions(ctx, diff.PositionUpdates); err != nil {
			report.Errors = append(report.Errors, StepError{Step: "positions", Detail: fmt.Sprintf("%d updates", len(diff.PositionUpdates)), Err: err})
		} else {
			report.PositionsUpdated = len(diff.PositionUpdates)
		}
	}

	s.logger.Info("media sync applied",
		zap.Int("uploaded", len(report.Uploaded)),
		zap.Int("deleted", len(report.Deleted)),
		zap.Bool("cover_set", report.CoverSet != ""),
		zap.Int("positions_updated", report.PositionsUpdated),
		zap.Int("failed", len(report.Errors)),
	)
	return report, nil
}

func (s *Syncer) upload(ctx context.Context, item Item, gallery Gallery) (string, error) {
	obj, err := s.store.GetObject(ctx, s.bucket, item.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to read object %q: %w", item.ObjectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("failed to read object %q: %w", item.ObjectKey, err)
	}
	return gallery.UploadImage(ctx, item, data)
}

// coverTarget resolves the external ID the cover pointer should move to.
// When the diff left the ID empty the new cover was in the upload set; its
// remote ID is only known if that upload succeeded.
func (s *Syncer) coverTarget(diff Diff, report ApplyReport) (string, bool) {
	if diff.NewCoverExternalID != "" {
		return diff.NewCoverExternalID, true
	}
	for _, item := range diff.ToUpload {
		if item.IsCover {
			externalID, ok := report.Uploaded[item.ID]
			return externalID, ok
		}
	}
	return "", false
}
