// internal/api/router.go
package api

import "net/http"

// RegisterRoutes mounts every API route on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Sessions
	mux.HandleFunc("GET /sessions", h.listSessions)
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("DELETE /sessions", h.clearSessions)
	mux.HandleFunc("PUT /sessions/active", h.selectSession)
	mux.HandleFunc("PATCH /sessions/{sessionID}", h.renameSession)
	mux.HandleFunc("DELETE /sessions/{sessionID}", h.deleteSession)
	mux.HandleFunc("POST /sessions/{sessionID}/favorite", h.toggleSessionFavorite)
	mux.HandleFunc("POST /sessions/{sessionID}/group", h.moveSessionToGroup)
	mux.HandleFunc("GET /sessions/{sessionID}/backup", h.backupSession)

	// Groups
	mux.HandleFunc("POST /groups", h.createGroup)
	mux.HandleFunc("PATCH /groups/{groupID}", h.renameGroup)
	mux.HandleFunc("DELETE /groups/{groupID}", h.deleteGroup)
	mux.HandleFunc("POST /groups/{groupID}/favorite", h.toggleGroupFavorite)
	mux.HandleFunc("GET /groups/{groupID}/backup", h.backupGroup)

	// Import / export
	mux.HandleFunc("GET /export", h.exportAll)
	mux.HandleFunc("POST /import", h.importSessions)

	// Workspace
	mux.HandleFunc("GET /workspace", h.getWorkspace)
	mux.HandleFunc("PUT /workspace/input", h.setRawInput)
	mux.HandleFunc("PUT /workspace/config", h.setConfig)
	mux.HandleFunc("POST /workspace/reset", h.resetWorkspace)
	mux.HandleFunc("GET /workspace/history", h.getHistory)
	mux.HandleFunc("GET /workspace/history/{resultID}", h.reviewResult)
	mux.HandleFunc("PATCH /workspace/history/{resultID}", h.updateResult)

	// Quiz
	mux.HandleFunc("POST /quiz", h.startQuiz)
	mux.HandleFunc("GET /quiz", h.getQuiz)
	mux.HandleFunc("DELETE /quiz", h.abandonQuiz)
	mux.HandleFunc("POST /quiz/retake/{resultID}", h.retakeQuiz)
	mux.HandleFunc("PUT /quiz/answers/{index}", h.answerQuestion)
	mux.HandleFunc("POST /quiz/submit", h.submitQuiz)
	mux.HandleFunc("GET /quiz/stream", h.streamQuiz)

	// AI
	mux.HandleFunc("GET /ai/config", h.getAIConfig)
	mux.HandleFunc("PUT /ai/config", h.setAIConfig)
	mux.HandleFunc("DELETE /ai/config", h.deleteAIConfig)
	mux.HandleFunc("POST /ai/validate", h.validateAI)
	mux.HandleFunc("POST /ai/generate", h.generateQuestions)
	mux.HandleFunc("POST /ai/explain/{resultID}", h.explainMistakes)
	mux.HandleFunc("POST /ai/explain/{resultID}/{index}", h.explainQuestion)
	mux.HandleFunc("GET /ai/chat/{resultID}/{index}", h.getConversation)
	mux.HandleFunc("POST /ai/chat/{resultID}/{index}", h.chat)
}
