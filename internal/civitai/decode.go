package civitai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"go.uber.org/zap"
)

// Raw payload shapes. Pointer fields mark values whose absence makes the
// entry malformed; everything else gets a soft default.

type rawCreator struct {
	Username *string `json:"username"`
	Image    string  `json:"image"`
}

type rawFileMetadata struct {
	FP     string `json:"fp"`
	Size   string `json:"size"`
	Format string `json:"format"`
	// trainingResults is also present here; it is never extracted and so
	// never reaches the store.
}

type rawFile struct {
	ID               *int64          `json:"id"`
	Name             *string         `json:"name"`
	Primary          bool            `json:"primary"`
	DownloadURL      *string         `json:"downloadUrl"`
	SizeKB           *float64        `json:"sizeKB"`
	PickleScanResult string          `json:"pickleScanResult"`
	VirusScanResult  string          `json:"virusScanResult"`
	Metadata         rawFileMetadata `json:"metadata"`
}

type rawImageMeta struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
}

type rawImage struct {
	ID   *int64        `json:"id"`
	URL  *string       `json:"url"`
	Meta *rawImageMeta `json:"meta"`
}

type rawVersion struct {
	ID          *int64     `json:"id"`
	ModelID     *int64     `json:"modelId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   *string    `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
	Files       []rawFile  `json:"files"`
	Images      []rawImage `json:"images"`
}

type rawModel struct {
	ID            *int64       `json:"id"`
	Name          *string      `json:"name"`
	Type          *string      `json:"type"`
	Tags          []string     `json:"tags"`
	NSFWLevel     *int64       `json:"nsfwLevel"`
	Description   string       `json:"description"`
	Creator       rawCreator   `json:"creator"`
	ModelVersions []rawVersion `json:"modelVersions"`
}

// DecodePage converts one page of raw catalog entries into typed rows.
// Malformed entries and entries without versions are logged and skipped; they
// never abort the page.
func DecodePage(items []json.RawMessage, logger *zap.Logger) domain.Page {
	var page domain.Page

	for _, item := range items {
		model, versions, files, images, err := decodeEntry(item)
		if err != nil {
			logger.Warn("skipping catalog entry", zap.Error(err))
			continue
		}

		page.Models = append(page.Models, model)
		page.Versions = append(page.Versions, versions...)
		page.Files = append(page.Files, files...)
		page.Images = append(page.Images, images...)
	}

	return page
}

// decodeEntry converts a single raw catalog entry and its nested version,
// file and image payloads. An entry with zero versions is discarded entirely:
// versions are mandatory.
func decodeEntry(data json.RawMessage) (domain.Model, []domain.ModelVersion, []domain.ModelFile, []domain.ModelImage, error) {
	var raw rawModel
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Model{}, nil, nil, nil, fmt.Errorf("decoding entry: %w", err)
	}

	model, err := modelFromRaw(raw)
	if err != nil {
		return domain.Model{}, nil, nil, nil, err
	}

	if len(raw.ModelVersions) == 0 {
		return domain.Model{}, nil, nil, nil,
			domain.NewSkippableError(nil, fmt.Sprintf("model %q has no versions, discarding", model.Name))
	}

	var (
		versions []domain.ModelVersion
		files    []domain.ModelFile
		images   []domain.ModelImage
	)

	for _, rawVer := range raw.ModelVersions {
		version, verFiles, verImages, err := versionFromRaw(rawVer)
		if err != nil {
			return domain.Model{}, nil, nil, nil, err
		}
		versions = append(versions, version)
		files = append(files, verFiles...)
		images = append(images, verImages...)
	}

	return model, versions, files, images, nil
}

func modelFromRaw(raw rawModel) (domain.Model, error) {
	switch {
	case raw.ID == nil:
		return domain.Model{}, domain.NewMissingFieldError("model", "id")
	case raw.Name == nil:
		return domain.Model{}, domain.NewMissingFieldError("model", "name")
	case raw.Type == nil:
		return domain.Model{}, domain.NewMissingFieldError("model", "type")
	case raw.Creator.Username == nil:
		return domain.Model{}, domain.NewMissingFieldError("model", "creator.username")
	}

	image := firstImage(raw.ModelVersions)

	imageURL := ""
	prompt := ""
	if image != nil {
		if image.URL != nil {
			imageURL = *image.URL
		}
		if image.Meta != nil {
			prompt = image.Meta.Prompt
		}
	}

	updatedAt, err := latestVersionTimestamp(raw.ModelVersions)
	if err != nil {
		return domain.Model{}, err
	}

	return domain.Model{
		ID:           *raw.ID,
		Name:         *raw.Name,
		Type:         *raw.Type,
		Category:     selectCategory(raw.Tags),
		NSFW:         nsfwLevel(raw, prompt),
		CreatorName:  *raw.Creator.Username,
		CreatorImage: raw.Creator.Image,
		Image:        imageURL,
		Description:  raw.Description,
		UpdatedAt:    updatedAt,
	}, nil
}

// nsfwLevel uses the explicit nsfwLevel field when the entry carries one and
// falls back to the legacy keyword heuristic otherwise.
func nsfwLevel(raw rawModel, prompt string) int64 {
	if raw.NSFWLevel != nil {
		return *raw.NSFWLevel
	}
	if detectNSFWLegacy(*raw.Creator.Username, *raw.Name, prompt, raw.Tags) {
		return nsfwLevelLegacy
	}
	return 0
}

func versionFromRaw(raw rawVersion) (domain.ModelVersion, []domain.ModelFile, []domain.ModelImage, error) {
	switch {
	case raw.ID == nil:
		return domain.ModelVersion{}, nil, nil, domain.NewMissingFieldError("model version", "id")
	case raw.ModelID == nil:
		return domain.ModelVersion{}, nil, nil, domain.NewMissingFieldError("model version", "modelId")
	}

	version := domain.ModelVersion{
		ID:          *raw.ID,
		ModelID:     *raw.ModelID,
		Name:        raw.Name,
		Description: raw.Description,
	}

	var files []domain.ModelFile
	for _, rawF := range raw.Files {
		if !isFileSafe(rawF) {
			continue
		}
		file, err := fileFromRaw(version.ModelID, version.ID, rawF)
		if err != nil {
			return domain.ModelVersion{}, nil, nil, err
		}
		files = append(files, file)
	}

	var images []domain.ModelImage
	for _, rawImg := range raw.Images {
		image, err := imageFromRaw(version.ModelID, version.ID, rawImg)
		if err != nil {
			return domain.ModelVersion{}, nil, nil, err
		}
		images = append(images, image)
	}

	return version, files, images, nil
}

// isFileSafe requires both remote scan results to have succeeded. Files
// failing either scan are excluded from the page entirely.
func isFileSafe(raw rawFile) bool {
	return raw.PickleScanResult == "Success" && raw.VirusScanResult == "Success"
}

func fileFromRaw(modelID, versionID int64, raw rawFile) (domain.ModelFile, error) {
	switch {
	case raw.ID == nil:
		return domain.ModelFile{}, domain.NewMissingFieldError("model file", "id")
	case raw.Name == nil:
		return domain.ModelFile{}, domain.NewMissingFieldError("model file", "name")
	case raw.DownloadURL == nil:
		return domain.ModelFile{}, domain.NewMissingFieldError("model file", "downloadUrl")
	case raw.SizeKB == nil:
		return domain.ModelFile{}, domain.NewMissingFieldError("model file", "sizeKB")
	}

	return domain.ModelFile{
		ID:             *raw.ID,
		ModelID:        modelID,
		ModelVersionID: versionID,
		IsPrimary:      raw.Primary,
		Name:           *raw.Name,
		URL:            *raw.DownloadURL,
		SizeKB:         *raw.SizeKB,
		Safe:           true,
		Format:         raw.Metadata.Format,
		Datatype:       raw.Metadata.FP,
		Pruned:         raw.Metadata.Size != "full",
	}, nil
}

func imageFromRaw(modelID, versionID int64, raw rawImage) (domain.ModelImage, error) {
	switch {
	case raw.ID == nil:
		return domain.ModelImage{}, domain.NewMissingFieldError("model image", "id")
	case raw.URL == nil:
		return domain.ModelImage{}, domain.NewMissingFieldError("model image", "url")
	}

	meta := rawImageMeta{}
	if raw.Meta != nil {
		meta = *raw.Meta
	}

	generation, err := json.Marshal(struct {
		Prompt         string `json:"prompt"`
		NegativePrompt string `json:"negativePrompt"`
	}{meta.Prompt, meta.NegativePrompt})
	if err != nil {
		return domain.ModelImage{}, fmt.Errorf("encoding generation data: %w", err)
	}

	return domain.ModelImage{
		ID:             *raw.ID,
		ModelID:        modelID,
		ModelVersionID: versionID,
		URL:            *raw.URL,
		GenerationData: string(generation),
	}, nil
}

// firstImage returns the first image found across the entry's versions. It
// supplies the model's representative image URL and the prompt text used by
// the legacy NSFW heuristic.
func firstImage(versions []rawVersion) *rawImage {
	for _, version := range versions {
		for i := range version.Images {
			return &version.Images[i]
		}
	}
	return nil
}

// latestVersionTimestamp returns the max updated timestamp across versions,
// falling back to a version's created timestamp when it has never been
// updated, and to the current time when no version carries a usable one.
func latestVersionTimestamp(versions []rawVersion) (int64, error) {
	var latest int64
	found := false

	for _, version := range versions {
		stamp := version.UpdatedAt
		if stamp == "" {
			if version.CreatedAt == nil {
				return 0, domain.NewMissingFieldError("model version", "createdAt")
			}
			stamp = *version.CreatedAt
		}

		ts, err := parseTimestamp(stamp)
		if err != nil {
			return 0, domain.NewSkippableError(err, "parsing version timestamp")
		}

		if !found || ts > latest {
			latest = ts
			found = true
		}
	}

	if !found {
		return time.Now().Unix(), nil
	}
	return latest, nil
}

func parseTimestamp(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
