package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/dashboard"
	"github.com/bouvin87/SystemBySelections-sub001/forms"
	"github.com/bouvin87/SystemBySelections-sub001/httpx"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/bouvin87/SystemBySelections-sub001/routes/middlewares"
	"github.com/go-chi/render"
)

func listChecklists(app app.App, onlyActive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := middlewares.TenantID(r.Context())

		query := `
			SELECT id, name, description, icon, ord, active, show_in_menu, has_dashboard,
				include_work_tasks, include_work_stations, include_shifts
			FROM checklist
			WHERE tenant_id = ?`
		if onlyActive {
			query += ` AND active`
		}
		query += ` ORDER BY ord, id`

		rows, err := app.QueryContext(r.Context(), query, tenantID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_checklists", err)
			return
		}
		defer rows.Close()

		checklists := []model.Checklist{}
		for rows.Next() {
			cl := model.Checklist{}
			err = rows.Scan(
				&cl.ID, &cl.Name, &cl.Description, &cl.Icon, &cl.Order, &cl.Active,
				&cl.ShowInMenu, &cl.HasDashboard,
				&cl.IncludeWorkTasks, &cl.IncludeWorkStations, &cl.IncludeShifts,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_checklists.scan", err)
				return
			}
			cl.Icon = model.ResolveIcon(cl.Icon)
			checklists = append(checklists, cl)
		}

		render.JSON(w, r, map[string]any{
			"checklists": checklists,
		})
	}
}

func ListChecklists(app app.App) http.HandlerFunc {
	return listChecklists(app, false)
}

func ListActiveChecklists(app app.App) http.HandlerFunc {
	return listChecklists(app, true)
}

func GetChecklistById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checklistId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		cl, err := loadChecklist(r.Context(), app, middlewares.TenantID(r.Context()), checklistId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_checklist", checklistId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_checklist", err)
			return
		}

		cl.Icon = model.ResolveIcon(cl.Icon)
		render.JSON(w, r, cl)
	}
}

func CreateChecklist(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl := model.Checklist{}
		err := render.DecodeJSON(r.Body, &cl)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(cl); err != nil {
			httpx.LogValidation(w, "create_checklist.validate", err)
			return
		}
		if cl.Icon != "" && !model.ValidIcon(cl.Icon) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_checklist.icon", "unknown icon %q", cl.Icon)
			return
		}
		if cl.Icon == "" {
			cl.Icon = model.IconFallback
		}

		var checklistId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO checklist (
				tenant_id, name, description, icon, ord, active, show_in_menu, has_dashboard,
				include_work_tasks, include_work_stations, include_shifts
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()),
			cl.Name, cl.Description, cl.Icon, cl.Order, cl.Active, cl.ShowInMenu,
			cl.HasDashboard, cl.IncludeWorkTasks, cl.IncludeWorkStations, cl.IncludeShifts,
		).Scan(&checklistId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_checklist", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": checklistId,
		})
	}
}

func UpdateChecklist(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checklistId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		cl := model.Checklist{}
		err = render.DecodeJSON(r.Body, &cl)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(cl); err != nil {
			httpx.LogValidation(w, "update_checklist.validate", err)
			return
		}
		if cl.Icon != "" && !model.ValidIcon(cl.Icon) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_checklist.icon", "unknown icon %q", cl.Icon)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE checklist
			SET
				name = ?, description = ?, icon = ?, ord = ?, active = ?,
				show_in_menu = ?, has_dashboard = ?,
				include_work_tasks = ?, include_work_stations = ?, include_shifts = ?
			WHERE id = ? AND tenant_id = ?`,
			cl.Name, cl.Description, cl.Icon, cl.Order, cl.Active,
			cl.ShowInMenu, cl.HasDashboard,
			cl.IncludeWorkTasks, cl.IncludeWorkStations, cl.IncludeShifts,
			checklistId, middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_checklist", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_checklist.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_checklist", checklistId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteChecklist(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checklistId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM checklist_response WHERE checklist_id = ? AND tenant_id = ?`,
			checklistId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist.responses", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question_work_task
			WHERE question_id IN (
				SELECT q.id FROM question q
				INNER JOIN category c ON (c.id = q.category_id)
				WHERE c.checklist_id = ? AND c.tenant_id = ?
			)`,
			checklistId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist.associations", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question
			WHERE category_id IN (
				SELECT id FROM category WHERE checklist_id = ? AND tenant_id = ?
			)`,
			checklistId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist.questions", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM category WHERE checklist_id = ? AND tenant_id = ?`,
			checklistId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist.categories", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM checklist WHERE id = ? AND tenant_id = ?`,
			checklistId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_checklist", checklistId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_checklist.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ComposeChecklistForm returns the wizard steps for a checklist, filtered by
// the identification selections passed as query parameters, along with the
// selector options for the identification step.
func ComposeChecklistForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checklistId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		cl, err := loadChecklist(r.Context(), app, tenantID, checklistId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "compose_form", checklistId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.compose_form.checklist", err)
			return
		}

		categories, err := loadCategories(r.Context(), app, tenantID, checklistId)
		if err != nil {
			httpx.LogInternalError(w, "db.compose_form.categories", err)
			return
		}
		questions, err := loadQuestionsForChecklist(r.Context(), app, tenantID, checklistId)
		if err != nil {
			httpx.LogInternalError(w, "db.compose_form.questions", err)
			return
		}

		sel := forms.Selection{
			ShiftID:       queryInt(r, "shiftId"),
			WorkTaskID:    queryInt(r, "workTaskId"),
			WorkStationID: queryInt(r, "workStationId"),
		}
		steps := forms.Compose(cl, categories, questions, sel)

		stations, err := loadWorkStations(r.Context(), app, tenantID)
		if err != nil {
			httpx.LogInternalError(w, "db.compose_form.stations", err)
			return
		}

		cl.Icon = model.ResolveIcon(cl.Icon)
		render.JSON(w, r, map[string]any{
			"checklist":    cl,
			"steps":        steps,
			"workStations": forms.FilterStations(stations, sel.WorkTaskID),
		})
	}
}

// GetChecklistDashboard computes the roll-up cards for every question of the
// checklist carrying a dashboard display hint, over the (optionally
// filtered) response set.
func GetChecklistDashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checklistId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		cl, err := loadChecklist(r.Context(), app, tenantID, checklistId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_dashboard", checklistId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_dashboard.checklist", err)
			return
		}
		if !cl.HasDashboard {
			httpx.LogStatus(w, http.StatusNotFound, log.DebugLevel, "get_dashboard.disabled")
			return
		}

		questions, err := loadQuestionsForChecklist(r.Context(), app, tenantID, checklistId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_dashboard.questions", err)
			return
		}

		responses, err := loadResponses(r.Context(), app, tenantID, responseFilter{
			ChecklistID: &checklistId,
			ShiftID:     queryInt(r, "shiftId"),
			WorkTaskID:  queryInt(r, "workTaskId"),
		})
		if err != nil {
			httpx.LogInternalError(w, "db.get_dashboard.responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"cards": dashboard.BuildCards(questions, responses),
		})
	}
}
