package domain

// Model is a single catalog entry. Identity is the numeric id assigned by the
// remote catalog; rows are immutable once constructed and replaced wholesale on
// resync.
type Model struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Type         string  `db:"type" json:"type"`
	Category     string  `db:"category" json:"category"`
	NSFW         int64   `db:"nsfw" json:"nsfw"`
	CreatorName  string  `db:"creator_name" json:"creator_name"`
	CreatorImage string  `db:"creator_image" json:"creator_image"`
	Image        string  `db:"image" json:"image"`
	Description  string  `db:"description" json:"description"`
	UpdatedAt    int64   `db:"updated_at" json:"updated_at"`
}

// ModelVersion is one published revision of a Model.
type ModelVersion struct {
	ID          int64  `db:"id" json:"id"`
	ModelID     int64  `db:"model_id" json:"model_id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// ModelFile is a downloadable artifact attached to a ModelVersion. Only files
// that passed both remote malware scans are ever constructed; unsafe files are
// filtered out during deserialization.
type ModelFile struct {
	ID             int64   `db:"id" json:"id"`
	ModelID        int64   `db:"model_id" json:"model_id"`
	ModelVersionID int64   `db:"model_version_id" json:"model_version_id"`
	IsPrimary      bool    `db:"is_primary" json:"is_primary"`
	Name           string  `db:"name" json:"name"`
	URL            string  `db:"url" json:"url"`
	SizeKB         float64 `db:"size" json:"size"`
	Safe           bool    `db:"safe" json:"safe"`
	Format         string  `db:"format" json:"format"`
	Datatype       string  `db:"datatype" json:"datatype"`
	Pruned         bool    `db:"pruned" json:"pruned"`
}

// ModelImage is a preview image attached to a ModelVersion. GenerationData is
// an opaque JSON blob holding the prompt and negative prompt the image was
// generated with.
type ModelImage struct {
	ID             int64  `db:"id" json:"id"`
	ModelID        int64  `db:"model_id" json:"model_id"`
	ModelVersionID int64  `db:"model_version_id" json:"model_version_id"`
	URL            string `db:"url" json:"url"`
	GenerationData string `db:"generation_data" json:"generation_data"`
}

// ModelDetail is a Model with its related rows attached, as served by
// lookup queries.
type ModelDetail struct {
	Model    Model          `json:"model"`
	Versions []ModelVersion `json:"versions"`
	Files    []ModelFile    `json:"files"`
	Images   []ModelImage   `json:"images"`
}

// Page is one fetched batch of catalog entries with their versions, files and
// images flattened. It is the unit of transfer between the fetcher and the
// store.
type Page struct {
	Models   []Model
	Versions []ModelVersion
	Files    []ModelFile
	Images   []ModelImage
}

// Empty reports whether the page carries no rows at all.
func (p Page) Empty() bool {
	return len(p.Models) == 0 && len(p.Versions) == 0 &&
		len(p.Files) == 0 && len(p.Images) == 0
}
