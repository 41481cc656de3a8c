package application

import (
	"github.com/cockroachdb/errors"

	"github.com/abdidvp/policyeval/internal/domain"
)

// DiffService compares two run logs.
type DiffService struct {
	reader domain.OutcomeReader
}

func NewDiffService(reader domain.OutcomeReader) *DiffService {
	return &DiffService{reader: reader}
}

func (s *DiffService) Compare(beforePath, afterPath string) (domain.RunDiff, error) {
	before, err := s.reader.Read(beforePath)
	if err != nil {
		return domain.RunDiff{}, errors.Wrapf(err, "reading %s", beforePath)
	}
	after, err := s.reader.Read(afterPath)
	if err != nil {
		return domain.RunDiff{}, errors.Wrapf(err, "reading %s", afterPath)
	}
	return domain.DiffRuns(before, after), nil
}
