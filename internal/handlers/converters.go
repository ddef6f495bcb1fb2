package handlers

import (
	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/services"
)

func toOptionResponse(o models.Option) dto.OptionResponse {
	return dto.OptionResponse{
		ID:        o.ID,
		ImageURL:  o.ImageURL,
		TextValue: o.TextValue,
	}
}

// toTaskResponse nil in, nil out
func toTaskResponse(t *models.Task) *dto.TaskResponse {
	if t == nil {
		return nil
	}
	options := make([]dto.OptionResponse, 0, len(t.Options))
	for _, o := range t.Options {
		options = append(options, toOptionResponse(o))
	}
	return &dto.TaskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Type:               string(t.Type),
		Amount:             t.Amount,
		Reward:             t.Reward(),
		MaximumSubmissions: t.MaximumSubmissions,
		Options:            options,
	}
}

func toTaskResultTask(t *models.Task) dto.TaskResultTask {
	return dto.TaskResultTask{
		ID:                 t.ID,
		Title:              t.Title,
		Type:               string(t.Type),
		Amount:             t.Amount,
		MaximumSubmissions: t.MaximumSubmissions,
		Reward:             t.Reward(),
		Dust:               t.Dust(),
		Done:               t.Done,
		Signature:          t.Signature,
		CreatedAt:          t.CreatedAt,
	}
}

func toTaskResultResponse(r *services.TaskResult) dto.TaskResultResponse {
	result := make(map[string]dto.OptionCountResponse, len(r.Options))
	for id, opt := range r.Options {
		result[id] = dto.OptionCountResponse{Count: opt.Count, Option: toOptionResponse(opt.Option)}
	}
	return dto.TaskResultResponse{Result: result, TaskDetail: toTaskResultTask(r.Task)}
}

func toTaskSummaryResponse(s services.TaskSummary) dto.TaskSummaryResponse {
	options := make([]dto.OptionCountResponse, 0, len(s.Options))
	for _, opt := range s.Options {
		options = append(options, dto.OptionCountResponse{Count: opt.Count, Option: toOptionResponse(opt.Option)})
	}
	return dto.TaskSummaryResponse{TaskResultTask: toTaskResultTask(s.Task), Options: options}
}

func toPayoutHistoryResponse(p *models.Payout) dto.PayoutHistoryResponse {
	return dto.PayoutHistoryResponse{
		ID:                p.ID,
		WorkerID:          p.WorkerID,
		Amount:            p.Amount,
		Status:            string(p.Status),
		Signature:         p.Signature,
		DispatchedAt:      p.DispatchedAt,
		DispatchAttempts:  p.DispatchAttempts,
		LastDispatchError: p.LastDispatchError,
		SettledAt:         p.SettledAt,
		CreatedAt:         p.CreatedAt,
	}
}

func toPayoutHistory(payouts []*models.Payout) []dto.PayoutHistoryResponse {
	out := make([]dto.PayoutHistoryResponse, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutHistoryResponse(p))
	}
	return out
}
