package routes

import (
	"net/http"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/routes/middlewares"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireModule("checklists"))

			r.Get("/checklists", ListChecklists(app))
			r.Get("/checklists/active", ListActiveChecklists(app))
			r.Get(`/checklists/{id:^\d+$}`, GetChecklistById(app))
			r.Get(`/checklists/{id:^\d+$}/form`, ComposeChecklistForm(app))
			r.Get(`/checklists/{id:^\d+$}/dashboard`, GetChecklistDashboard(app))

			r.Get("/categories", ListCategories(app))
			r.Get("/questions", ListQuestions(app))
			r.Get("/work-tasks", ListWorkTasks(app))
			r.Get("/work-stations", ListWorkStations(app))
			r.Get("/shifts", ListShifts(app))

			r.Group(func(r chi.Router) {
				r.Use(middlewares.Admin)

				r.Post("/checklists", CreateChecklist(app))
				r.Put(`/checklists/{id:^\d+$}`, UpdateChecklist(app))
				r.Delete(`/checklists/{id:^\d+$}`, DeleteChecklist(app))

				r.Post("/categories", CreateCategory(app))
				r.Put(`/categories/{id:^\d+$}`, UpdateCategory(app))
				r.Delete(`/categories/{id:^\d+$}`, DeleteCategory(app))

				r.Post("/questions", CreateQuestion(app))
				r.Put(`/questions/{id:^\d+$}`, UpdateQuestion(app))
				r.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))

				r.Post("/work-tasks", CreateWorkTask(app))
				r.Delete(`/work-tasks/{id:^\d+$}`, DeleteWorkTask(app))
				r.Post("/work-stations", CreateWorkStation(app))
				r.Delete(`/work-stations/{id:^\d+$}`, DeleteWorkStation(app))
				r.Post("/shifts", CreateShift(app))
				r.Delete(`/shifts/{id:^\d+$}`, DeleteShift(app))
			})

			r.Post("/responses", SubmitResponse(app))
			r.Get("/responses", ListResponses(app))
			r.Get(`/responses/{id:^\d+$}`, GetResponseById(app))
			r.Get(`/responses/{id:^\d+$}/view`, GetResponseView(app))
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireModule("deviations"))

			r.Get("/custom-fields", ListCustomFields(app))
			r.Get("/deviation-types", ListDeviationTypes(app))
			r.Group(func(r chi.Router) {
				r.Use(middlewares.Admin)

				r.Post("/custom-fields", CreateCustomField(app))
				r.Delete(`/custom-fields/{id:^\d+$}`, DeleteCustomField(app))
				r.Post("/deviation-types", CreateDeviationType(app))
				r.Delete(`/deviation-types/{id:^\d+$}`, DeleteDeviationType(app))
			})

			r.Post("/deviations", CreateDeviation(app))
			r.Get("/deviations", ListDeviations(app))
			r.Get(`/deviations/{id:^\d+$}`, GetDeviationById(app))
			r.Patch(`/deviations/{id:^\d+$}`, UpdateDeviation(app))
			r.Get(`/deviations/{id:^\d+$}/logs`, ListDeviationLogs(app))
			r.Get(`/deviations/{id:^\d+$}/comments`, ListDeviationComments(app))
			r.Post(`/deviations/{id:^\d+$}/comments`, CreateDeviationComment(app))
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireModule("kanban"))

			r.Post("/kanban/boards", CreateBoard(app))
			r.Get("/kanban/boards", ListBoards(app))
			r.Get(`/kanban/boards/{id:^\d+$}`, GetBoardById(app))
			r.Put(`/kanban/boards/{id:^\d+$}`, UpdateBoard(app))
			r.Delete(`/kanban/boards/{id:^\d+$}`, DeleteBoard(app))

			r.Post(`/kanban/boards/{id:^\d+$}/columns`, CreateColumn(app))
			r.Put(`/kanban/columns/{id:^\d+$}`, UpdateColumn(app))
			r.Delete(`/kanban/columns/{id:^\d+$}`, DeleteColumn(app))

			r.Post(`/kanban/columns/{id:^\d+$}/cards`, CreateCard(app))
			r.Put(`/kanban/cards/{id:^\d+$}`, UpdateCard(app))
			r.Post(`/kanban/cards/{id:^\d+$}/move`, MoveCard(app))
			r.Delete(`/kanban/cards/{id:^\d+$}`, DeleteCard(app))

			r.Get(`/kanban/cards/{id:^\d+$}/comments`, ListCardComments(app))
			r.Post(`/kanban/cards/{id:^\d+$}/comments`, CreateCardComment(app))
			r.Post(`/kanban/cards/{id:^\d+$}/attachments`, UploadAttachment(app))
			r.Get(`/kanban/attachments/{id:^\d+$}`, DownloadAttachment(app))
		})
	})

	return api
}
