package services

import "context"

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ResponseStore
}

func NewExportService(store ResponseStore) *ExportService {
	return &ExportService{store: store}
}

// ExportCSV builds the owner's CSV download of all finalized responses.
func (s *ExportService) ExportCSV(ctx context.Context, p *Principal, surveyID string) (*ExportResult, error) {
	sv, err := loadManaged(ctx, s.store, p, surveyID)
	if err != nil {
		return nil, err
	}
	rs, err := s.store.ListResponses(ctx, sv.ID)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    "survey_" + sv.ID + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        ExportResponsesCSV(orderedQuestions(sv), rs),
	}, nil
}
