package routes

import (
	"encoding/json"
	"net/http"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/httpx"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/bouvin87/SystemBySelections-sub001/routes/middlewares"
	"github.com/go-chi/render"
)

func ListCategories(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checklistID := queryInt(r, "checklistId")
		if checklistID == nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.checklistId")
			return
		}

		categories, err := loadCategories(r.Context(), app, middlewares.TenantID(r.Context()), *checklistID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_categories", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"categories": categories,
		})
	}
}

func CreateCategory(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := model.Category{}
		err := render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(c); err != nil {
			httpx.LogValidation(w, "create_category.validate", err)
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		// the referenced checklist must exist in this tenant
		var exists bool
		err = app.QueryRowContext(r.Context(),
			"SELECT 1 FROM checklist WHERE id = ? AND tenant_id = ?",
			c.ChecklistID, tenantID,
		).Scan(&exists)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_category.checklist", "checklist %d not found", c.ChecklistID)
			return
		}

		var categoryId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO category (tenant_id, checklist_id, name, ord)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			tenantID, c.ChecklistID, c.Name, c.Order,
		).Scan(&categoryId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_category", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": categoryId,
		})
	}
}

func UpdateCategory(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		c := model.Category{}
		err = render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(c); err != nil {
			httpx.LogValidation(w, "update_category.validate", err)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE category SET name = ?, ord = ?
			WHERE id = ? AND tenant_id = ?`,
			c.Name, c.Order, categoryId, middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_category", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "update_category", categoryId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteCategory(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryId, err := urlParamInt(r, "id")
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
			DELETE FROM question_work_task
			WHERE question_id IN (
				SELECT id FROM question WHERE category_id = ? AND tenant_id = ?
			)`,
			categoryId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_category.associations", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question WHERE category_id = ? AND tenant_id = ?`,
			categoryId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_category.questions", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM category WHERE id = ? AND tenant_id = ?`,
			categoryId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_category", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "delete_category", categoryId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_category.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := queryInt(r, "categoryId")
		if categoryID == nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.categoryId")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, category_id, label, type, required, hide_in_view,
				validation_max, dashboard_display, options, ord
			FROM question
			WHERE category_id = ? AND tenant_id = ?
			ORDER BY ord, id`,
			*categoryID, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions", err)
			return
		}
		defer rows.Close()

		questions := []model.Question{}
		index := map[int]int{}
		for rows.Next() {
			q, err := scanQuestion(rows)
			if err != nil {
				httpx.LogInternalError(w, "db.get_questions.scan", err)
				return
			}
			index[q.ID] = len(questions)
			questions = append(questions, q)
		}

		assoc, err := app.QueryContext(r.Context(), `
			SELECT qwt.question_id, qwt.work_task_id
			FROM question_work_task qwt
			INNER JOIN question q ON (q.id = qwt.question_id)
			WHERE q.category_id = ? AND q.tenant_id = ?`,
			*categoryID, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions.associations", err)
			return
		}
		defer assoc.Close()

		for assoc.Next() {
			var questionID, workTaskID int
			if err := assoc.Scan(&questionID, &workTaskID); err != nil {
				httpx.LogInternalError(w, "db.get_questions.associations.scan", err)
				return
			}
			if i, ok := index[questionID]; ok {
				questions[i].WorkTaskIDs = append(questions[i].WorkTaskIDs, workTaskID)
			}
		}

		render.JSON(w, r, map[string]any{
			"questions": questions,
		})
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := model.Question{}
		err := render.DecodeJSON(r.Body, &q)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(q); err != nil {
			httpx.LogValidation(w, "create_question.validate", err)
			return
		}
		if !model.ValidQuestionType(q.Type) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_question.type", "unknown question type %q", q.Type)
			return
		}
		if q.DashboardDisplay != nil && !model.ValidDashboardDisplay(*q.DashboardDisplay) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_question.display", "unknown dashboard display %q", *q.DashboardDisplay)
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		// the referenced category must exist in this tenant
		var exists bool
		err = app.QueryRowContext(r.Context(),
			"SELECT 1 FROM category WHERE id = ? AND tenant_id = ?",
			q.CategoryID, tenantID,
		).Scan(&exists)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_question.category", "category %d not found", q.CategoryID)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var options []byte
		if q.Options != nil {
			options, err = json.Marshal(q.Options)
			if err != nil {
				httpx.LogInternalError(w, "create_question.marshal_options", err)
				return
			}
		}

		var questionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO question (
				tenant_id, category_id, label, type, required, hide_in_view,
				validation_max, dashboard_display, options, ord
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			tenantID, q.CategoryID, q.Label, q.Type, q.Required, q.HideInView,
			q.ValidationMax, q.DashboardDisplay, string(options), q.Order,
		).Scan(&questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO question_work_task (question_id, work_task_id)
			VALUES (?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.associations.prepare", err)
			return
		}
		defer stmt.Close()

		for _, workTaskID := range q.WorkTaskIDs {
			_, err := stmt.ExecContext(r.Context(), questionId, workTaskID)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_question.associations.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": questionId,
		})
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		q := model.Question{}
		err = render.DecodeJSON(r.Body, &q)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(q); err != nil {
			httpx.LogValidation(w, "update_question.validate", err)
			return
		}
		if !model.ValidQuestionType(q.Type) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_question.type", "unknown question type %q", q.Type)
			return
		}
		if q.DashboardDisplay != nil && !model.ValidDashboardDisplay(*q.DashboardDisplay) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_question.display", "unknown dashboard display %q", *q.DashboardDisplay)
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var options []byte
		if q.Options != nil {
			options, err = json.Marshal(q.Options)
			if err != nil {
				httpx.LogInternalError(w, "update_question.marshal_options", err)
				return
			}
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE question
			SET label = ?, type = ?, required = ?, hide_in_view = ?,
				validation_max = ?, dashboard_display = ?, options = ?, ord = ?
			WHERE id = ? AND tenant_id = ?`,
			q.Label, q.Type, q.Required, q.HideInView,
			q.ValidationMax, q.DashboardDisplay, string(options), q.Order,
			questionId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "update_question", questionId)
			return
		}

		// recreate the work task associations
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question_work_task WHERE question_id = ?`,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.associations.delete", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO question_work_task (question_id, work_task_id)
			VALUES (?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.associations.prepare", err)
			return
		}
		defer stmt.Close()

		for _, workTaskID := range q.WorkTaskIDs {
			_, err := stmt.ExecContext(r.Context(), questionId, workTaskID)
			if err != nil {
				httpx.LogInternalError(w, "db.update_question.associations.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := urlParamInt(r, "id")
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
			DELETE FROM question_work_task WHERE question_id = ?`,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question.associations", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM question WHERE id = ? AND tenant_id = ?`,
			questionId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "delete_question", questionId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListWorkTasks(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name FROM work_task
			WHERE tenant_id = ?
			ORDER BY name, id`,
			middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_work_tasks", err)
			return
		}
		defer rows.Close()

		tasks := []model.WorkTask{}
		for rows.Next() {
			t := model.WorkTask{}
			if err := rows.Scan(&t.ID, &t.Name); err != nil {
				httpx.LogInternalError(w, "db.get_work_tasks.scan", err)
				return
			}
			tasks = append(tasks, t)
		}

		render.JSON(w, r, map[string]any{
			"workTasks": tasks,
		})
	}
}

func CreateWorkTask(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := model.WorkTask{}
		err := render.DecodeJSON(r.Body, &t)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(t); err != nil {
			httpx.LogValidation(w, "create_work_task.validate", err)
			return
		}

		var taskId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO work_task (tenant_id, name) VALUES (?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), t.Name,
		).Scan(&taskId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_work_task", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": taskId,
		})
	}
}

func DeleteWorkTask(app app.App) http.HandlerFunc {
	return deleteTenantRow(app, "work_task", "delete_work_task")
}

func ListWorkStations(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stations, err := loadWorkStations(r.Context(), app, middlewares.TenantID(r.Context()))
		if err != nil {
			httpx.LogInternalError(w, "db.get_work_stations", err)
			return
		}

		// narrow to the selected work task when one is given
		if workTaskID := queryInt(r, "workTaskId"); workTaskID != nil {
			filtered := stations[:0]
			for _, s := range stations {
				if s.WorkTaskID == nil || *s.WorkTaskID == *workTaskID {
					filtered = append(filtered, s)
				}
			}
			stations = filtered
		}

		render.JSON(w, r, map[string]any{
			"workStations": stations,
		})
	}
}

func CreateWorkStation(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := model.WorkStation{}
		err := render.DecodeJSON(r.Body, &s)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(s); err != nil {
			httpx.LogValidation(w, "create_work_station.validate", err)
			return
		}

		var stationId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO work_station (tenant_id, name, work_task_id) VALUES (?, ?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), s.Name, s.WorkTaskID,
		).Scan(&stationId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_work_station", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": stationId,
		})
	}
}

func DeleteWorkStation(app app.App) http.HandlerFunc {
	return deleteTenantRow(app, "work_station", "delete_work_station")
}

func ListShifts(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name, start_time, end_time FROM shift
			WHERE tenant_id = ?
			ORDER BY start_time, id`,
			middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_shifts", err)
			return
		}
		defer rows.Close()

		shifts := []model.Shift{}
		for rows.Next() {
			s := model.Shift{}
			if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime); err != nil {
				httpx.LogInternalError(w, "db.get_shifts.scan", err)
				return
			}
			shifts = append(shifts, s)
		}

		render.JSON(w, r, map[string]any{
			"shifts": shifts,
		})
	}
}

func CreateShift(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := model.Shift{}
		err := render.DecodeJSON(r.Body, &s)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(s); err != nil {
			httpx.LogValidation(w, "create_shift.validate", err)
			return
		}

		var shiftId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO shift (tenant_id, name, start_time, end_time) VALUES (?, ?, ?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), s.Name, s.StartTime, s.EndTime,
		).Scan(&shiftId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_shift", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": shiftId,
		})
	}
}

func DeleteShift(app app.App) http.HandlerFunc {
	return deleteTenantRow(app, "shift", "delete_shift")
}

// deleteTenantRow deletes one row by id within the caller's tenant.
func deleteTenantRow(app app.App, table, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(),
			"DELETE FROM "+table+" WHERE id = ? AND tenant_id = ?",
			id, middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db."+code, err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, code, id)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
