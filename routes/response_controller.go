package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/dashboard"
	"github.com/bouvin87/SystemBySelections-sub001/forms"
	"github.com/bouvin87/SystemBySelections-sub001/httpx"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/bouvin87/SystemBySelections-sub001/routes/middlewares"
	"github.com/go-chi/render"
)

// SubmitResponse validates a response document against its checklist schema
// and stores it as one atomic unit. Responses are write-once; the schema
// rejects updates.
func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := model.ChecklistResponse{}
		err := render.DecodeJSON(r.Body, &resp)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		cl, err := loadChecklist(r.Context(), app, tenantID, resp.ChecklistID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "submit_response.checklist", resp.ChecklistID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.submit_response.checklist", err)
			return
		}

		categories, err := loadCategories(r.Context(), app, tenantID, cl.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_response.categories", err)
			return
		}
		questions, err := loadQuestionsForChecklist(r.Context(), app, tenantID, cl.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_response.questions", err)
			return
		}

		if err := forms.Validate(cl, categories, questions, resp); err != nil {
			httpx.LogValidation(w, "submit_response.validate", err)
			return
		}

		answers, err := json.Marshal(resp.Answers)
		if err != nil {
			httpx.LogInternalError(w, "submit_response.marshal_answers", err)
			return
		}

		var responseId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO checklist_response (
				tenant_id, checklist_id, operator, shift_id, work_task_id, work_station_id,
				answers, is_completed
			) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
			RETURNING id`,
			tenantID, cl.ID, resp.Operator,
			resp.ShiftID, resp.WorkTaskID, resp.WorkStationID,
			string(answers),
		).Scan(&responseId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": responseId,
		})
	}
}

type responseFilter struct {
	ChecklistID *int
	ShiftID     *int
	WorkTaskID  *int
}

func loadResponses(ctx context.Context, app app.App, tenantID int, filter responseFilter) ([]model.ChecklistResponse, error) {
	query := `
		SELECT id, checklist_id, operator, shift_id, work_task_id, work_station_id,
			answers, is_completed, created_at
		FROM checklist_response
		WHERE tenant_id = ?`
	args := []any{tenantID}
	if filter.ChecklistID != nil {
		query += ` AND checklist_id = ?`
		args = append(args, *filter.ChecklistID)
	}
	if filter.ShiftID != nil {
		query += ` AND shift_id = ?`
		args = append(args, *filter.ShiftID)
	}
	if filter.WorkTaskID != nil {
		query += ` AND work_task_id = ?`
		args = append(args, *filter.WorkTaskID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := app.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.ChecklistResponse{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (model.ChecklistResponse, error) {
	resp := model.ChecklistResponse{}
	var shiftID, workTaskID, workStationID sql.NullInt64
	var answers string
	err := row.Scan(
		&resp.ID, &resp.ChecklistID, &resp.Operator,
		&shiftID, &workTaskID, &workStationID,
		&answers, &resp.IsCompleted, &resp.CreatedAt,
	)
	if err != nil {
		return resp, err
	}
	if shiftID.Valid {
		id := int(shiftID.Int64)
		resp.ShiftID = &id
	}
	if workTaskID.Valid {
		id := int(workTaskID.Int64)
		resp.WorkTaskID = &id
	}
	if workStationID.Valid {
		id := int(workStationID.Int64)
		resp.WorkStationID = &id
	}
	if err := json.Unmarshal([]byte(answers), &resp.Answers); err != nil {
		return resp, err
	}
	return resp, nil
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses, err := loadResponses(r.Context(), app, middlewares.TenantID(r.Context()), responseFilter{
			ChecklistID: queryInt(r, "checklistId"),
			ShiftID:     queryInt(r, "shiftId"),
			WorkTaskID:  queryInt(r, "workTaskId"),
		})
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func getResponse(ctx context.Context, app app.App, tenantID, id int) (model.ChecklistResponse, error) {
	row := app.QueryRowContext(ctx, `
		SELECT id, checklist_id, operator, shift_id, work_task_id, work_station_id,
			answers, is_completed, created_at
		FROM checklist_response
		WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	)
	return scanResponse(row)
}

func GetResponseById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		resp, err := getResponse(r.Context(), app, middlewares.TenantID(r.Context()), responseId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_response", responseId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_response", err)
			return
		}

		render.JSON(w, r, resp)
	}
}

// GetResponseView re-joins a stored response against its checklist schema
// and returns per-category rendered answers.
func GetResponseView(app app.App) http.HandlerFunc {
	type answerView struct {
		QuestionID int                  `json:"questionId"`
		Label      string               `json:"label"`
		View       dashboard.AnswerView `json:"view"`
	}
	type categoryView struct {
		Category model.Category `json:"category"`
		Answers  []answerView   `json:"answers"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		resp, err := getResponse(r.Context(), app, tenantID, responseId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_response_view", responseId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_response_view", err)
			return
		}

		cl, err := loadChecklist(r.Context(), app, tenantID, resp.ChecklistID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_response_view.checklist", err)
			return
		}
		categories, err := loadCategories(r.Context(), app, tenantID, cl.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_response_view.categories", err)
			return
		}
		questions, err := loadQuestionsForChecklist(r.Context(), app, tenantID, cl.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_response_view.questions", err)
			return
		}

		sel := forms.Selection{ShiftID: resp.ShiftID, WorkTaskID: resp.WorkTaskID, WorkStationID: resp.WorkStationID}
		views := []categoryView{}
		for _, step := range forms.Compose(cl, categories, questions, sel) {
			if step.Kind != forms.StepCategory {
				continue
			}
			cv := categoryView{Answers: []answerView{}}
			for _, c := range categories {
				if c.ID == step.CategoryID {
					cv.Category = c
					break
				}
			}
			for _, q := range step.Questions {
				a := resp.Answers[strconv.Itoa(q.ID)]
				cv.Answers = append(cv.Answers, answerView{
					QuestionID: q.ID,
					Label:      q.Label,
					View:       dashboard.RenderAnswer(q, a),
				})
			}
			views = append(views, cv)
		}

		render.JSON(w, r, map[string]any{
			"response":   resp,
			"categories": views,
		})
	}
}
