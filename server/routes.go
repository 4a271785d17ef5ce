package server

func (s *Server) registerRoutes() {
	s.router.Use(s.requestLog)

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	s.router.HandleFunc("/v1/chat", s.handleChat).Methods("POST")
}
