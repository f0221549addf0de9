package imagemeta

// EventKind is the domain type for classified object lifecycle events.
type EventKind string

// Event kind constants (typed).
const (
	EventKindCreated EventKind = "created"
	EventKindRemoved EventKind = "removed"
)

// ObjectEvent is one occurrence of an object being created or removed in the
// content store. Key is URL-decoded exactly once, with "+" mapped to space
// before percent-decoding.
type ObjectEvent struct {
	Bucket string    `json:"bucket"`
	Key    string    `json:"key"`
	Kind   EventKind `json:"kind"`
}

// MetadataField is the domain type for enrichment fields settable after
// ingestion. Only the enumerated constants are accepted by the field updater.
type MetadataField string

// Enrichment field constants (typed).
const (
	FieldDate         MetadataField = "Date"
	FieldCaption      MetadataField = "Caption"
	FieldPhotographer MetadataField = "Photographer"
)

// Valid reports whether f is one of the enumerated enrichment fields.
func (f MetadataField) Valid() bool {
	switch f {
	case FieldDate, FieldCaption, FieldPhotographer:
		return true
	}
	return false
}

// ImageRecord is the durable metadata row for one stored object.
//
// ImageName is the primary key and equals the object key. FileSize and
// FileExtension are set exactly once at ingestion by the store writer;
// enrichment fields are set only by the field updater and only on a record
// that already exists.
type ImageRecord struct {
	ImageName     string `json:"image_name" dynamodbav:"ImageName"`
	FileSize      int64  `json:"file_size" dynamodbav:"FileSize"`
	FileExtension string `json:"file_extension" dynamodbav:"FileExtension"`

	Date         string `json:"date,omitempty" dynamodbav:"Date,omitempty"`
	Caption      string `json:"caption,omitempty" dynamodbav:"Caption,omitempty"`
	Photographer string `json:"photographer,omitempty" dynamodbav:"Photographer,omitempty"`
}

// MetadataUpdateMessage is an out-of-band instruction to set one enrichment
// field on an existing record. The wire body carries id/value; the field name
// travels as a message attribute on the notification envelope.
type MetadataUpdateMessage struct {
	ImageName string        `json:"id"`
	Field     MetadataField `json:"-"`
	Value     string        `json:"value"`
}
