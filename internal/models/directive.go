// Package models defines directive structures embedded in model output.
package models

// FilterCriteria narrows a gallery lookup beyond type and procedure.
type FilterCriteria struct {
	AgeRange          string `json:"age_range,omitempty"`
	Gender            string `json:"gender,omitempty"`
	SpecificTechnique string `json:"specific_technique,omitempty"`
}

// GalleryDirective is a machine-readable instruction, embedded in model
// output, requesting that a bounded set of catalog images be shown. It is
// parsed at most once per completed stream and not persisted.
type GalleryDirective struct {
	ShowGallery    bool            `json:"show_gallery"`
	GalleryType    GalleryType     `json:"gallery_type"`
	ProcedureType  string          `json:"procedure_type,omitempty"`
	ImageCount     int             `json:"image_count,omitempty"`
	FilterCriteria *FilterCriteria `json:"filter_criteria,omitempty"`
}

// StateDirective carries a stage transition requested by the model.
// The stage name is validated against the stage enumeration at extraction
// time; invalid values are discarded, not defaulted.
type StateDirective struct {
	NextState Stage `json:"next_state"`
}
