package model

import "fmt"

// SourceInformation locates the definition of a node in its source file
type SourceInformation struct {
	SourceID string `yaml:"file" json:"file"`
	Line     int    `yaml:"line" json:"line"`
	Column   int    `yaml:"column" json:"column"`
}

func (s *SourceInformation) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d c%d", s.SourceID, s.Line, s.Column)
}
