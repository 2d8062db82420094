package model

// AnnotationValueType is the kind of value an annotation holds.
type AnnotationValueType string

// Annotation value types.
const (
	AnnotationValueText     AnnotationValueType = "text"
	AnnotationValueNumber   AnnotationValueType = "number"
	AnnotationValueDateTime AnnotationValueType = "datetime"
	AnnotationValueSelect   AnnotationValueType = "select"
)

// AnnotationType is study metadata describing one annotation slot.
type AnnotationType struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	ValueType     AnnotationValueType `json:"valueType"`
	MaxValueCount int                 `json:"maxValueCount,omitempty"`
	Options       []string            `json:"options,omitempty"`
	Required      bool                `json:"required"`
}

// Annotation is a value recorded against an annotation type.
type Annotation struct {
	AnnotationTypeID string   `json:"annotationTypeId"`
	StringValue      string   `json:"stringValue,omitempty"`
	NumberValue      string   `json:"numberValue,omitempty"`
	SelectedValues   []string `json:"selectedValues,omitempty"`
}

// HasAnnotations is implemented by entities that carry annotations.
type HasAnnotations interface {
	GetAnnotations() []Annotation
	SetAnnotations([]Annotation)
}

// SetAnnotationTypes rebuilds the annotations of entity so there is exactly one per
// type, in types order. Existing values for a type are kept; values for types no
// longer listed are dropped.
func SetAnnotationTypes(entity HasAnnotations, types []AnnotationType) {
	existing := make(map[string]Annotation)
	for _, a := range entity.GetAnnotations() {
		existing[a.AnnotationTypeID] = a
	}

	annotations := make([]Annotation, 0, len(types))
	for _, t := range types {
		if a, ok := existing[t.ID]; ok {
			annotations = append(annotations, a)
			continue
		}
		annotations = append(annotations, Annotation{AnnotationTypeID: t.ID})
	}
	entity.SetAnnotations(annotations)
}

// Participant is a study participant. Specimens are collected from participants.
type Participant struct {
	ID          string       `json:"id"`
	Version     int64        `json:"version"`
	StudyID     string       `json:"studyId"`
	UniqueID    string       `json:"uniqueId"`
	Annotations []Annotation `json:"annotations"`
}

func (p *Participant) GetAnnotations() []Annotation  { return p.Annotations }
func (p *Participant) SetAnnotations(a []Annotation) { p.Annotations = a }
