package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/go-chi/chi/v5"
)

func urlParamInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

// queryInt returns the named query parameter as an int, or nil when absent
// or unparseable.
func queryInt(r *http.Request, name string) *int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func loadChecklist(ctx context.Context, app app.App, tenantID, id int) (model.Checklist, error) {
	cl := model.Checklist{}
	err := app.QueryRowContext(ctx, `
		SELECT id, name, description, icon, ord, active, show_in_menu, has_dashboard,
			include_work_tasks, include_work_stations, include_shifts
		FROM checklist
		WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(
		&cl.ID, &cl.Name, &cl.Description, &cl.Icon, &cl.Order, &cl.Active,
		&cl.ShowInMenu, &cl.HasDashboard,
		&cl.IncludeWorkTasks, &cl.IncludeWorkStations, &cl.IncludeShifts,
	)
	return cl, err
}

func loadCategories(ctx context.Context, app app.App, tenantID, checklistID int) ([]model.Category, error) {
	rows, err := app.QueryContext(ctx, `
		SELECT id, checklist_id, name, ord
		FROM category
		WHERE checklist_id = ? AND tenant_id = ?
		ORDER BY ord, id`,
		checklistID, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c := model.Category{}
		if err := rows.Scan(&c.ID, &c.ChecklistID, &c.Name, &c.Order); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanQuestion(rows *sql.Rows) (model.Question, error) {
	q := model.Question{}
	var max sql.NullFloat64
	var display sql.NullString
	var options string
	err := rows.Scan(
		&q.ID, &q.CategoryID, &q.Label, &q.Type, &q.Required, &q.HideInView,
		&max, &display, &options, &q.Order,
	)
	if err != nil {
		return q, err
	}
	if max.Valid {
		q.ValidationMax = &max.Float64
	}
	if display.Valid && display.String != "" {
		q.DashboardDisplay = &display.String
	}
	if options != "" {
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return q, err
		}
	}
	return q, nil
}

// loadQuestionsForChecklist returns every question under the checklist's
// categories, with work task associations attached.
func loadQuestionsForChecklist(ctx context.Context, app app.App, tenantID, checklistID int) ([]model.Question, error) {
	rows, err := app.QueryContext(ctx, `
		SELECT q.id, q.category_id, q.label, q.type, q.required, q.hide_in_view,
			q.validation_max, q.dashboard_display, q.options, q.ord
		FROM question q
		INNER JOIN category c ON (c.id = q.category_id)
		WHERE c.checklist_id = ? AND c.tenant_id = ?
		ORDER BY q.ord, q.id`,
		checklistID, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	index := map[int]int{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assoc, err := app.QueryContext(ctx, `
		SELECT qwt.question_id, qwt.work_task_id
		FROM question_work_task qwt
		INNER JOIN question q ON (q.id = qwt.question_id)
		INNER JOIN category c ON (c.id = q.category_id)
		WHERE c.checklist_id = ? AND c.tenant_id = ?`,
		checklistID, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer assoc.Close()

	for assoc.Next() {
		var questionID, workTaskID int
		if err := assoc.Scan(&questionID, &workTaskID); err != nil {
			return nil, err
		}
		if i, ok := index[questionID]; ok {
			questions[i].WorkTaskIDs = append(questions[i].WorkTaskIDs, workTaskID)
		}
	}
	return questions, assoc.Err()
}

func loadWorkStations(ctx context.Context, app app.App, tenantID int) ([]model.WorkStation, error) {
	rows, err := app.QueryContext(ctx, `
		SELECT id, name, work_task_id
		FROM work_station
		WHERE tenant_id = ?
		ORDER BY name, id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []model.WorkStation{}
	for rows.Next() {
		s := model.WorkStation{}
		var taskID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Name, &taskID); err != nil {
			return nil, err
		}
		if taskID.Valid {
			id := int(taskID.Int64)
			s.WorkTaskID = &id
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}
