package server

import (
	"context"
	"net/http"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/fileop"
)

type mutationResponse struct {
	Success bool `json:"success"`
	*fileop.Result
}

// requireMutations answers every file operation with 403 while they are
// disabled, before any body is read or path resolved.
func (s *Server) requireMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.policy().MutationsEnabled() {
			writeJSONError(w, http.StatusForbidden, "File operations are disabled", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// mutate validates req and executes the resulting plan under the operation
// timeout.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, req access.OperationRequest) {
	plan, err := s.validator.Validate(req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config().OperationTimeout())
	defer cancel()

	result, err := s.executor().Execute(ctx, plan)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if plan.Source != nil {
		s.checksums.ForgetTree(plan.Source.Path)
	}
	if plan.Destination != nil {
		s.checksums.ForgetTree(plan.Destination.Path)
	}

	loggerFrom(r.Context()).Info("file operation",
		"operation", result.Kind,
		"source", result.Source,
		"destination", result.Destination,
	)
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, Result: result})
}

func (s *Server) handleTransfer(kind access.OperationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeBody[transferRequest](w, r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		s.mutate(w, r, access.OperationRequest{
			Kind:        kind,
			Source:      req.Source,
			Destination: req.Destination,
			Overwrite:   req.Overwrite,
			Merge:       req.Merge,
		})
	}
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[renameRequest](w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	dest, ok := sibling(req.Path, req.NewName)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", "path has no parent directory")
		return
	}
	s.mutate(w, r, access.OperationRequest{Kind: access.OpRename, Source: req.Path, Destination: dest})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[deleteRequest](w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	s.mutate(w, r, access.OperationRequest{Kind: access.OpDelete, Source: req.Path})
}

func (s *Server) handleCreate(kind access.OperationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeBody[createRequest](w, r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		s.mutate(w, r, access.OperationRequest{Kind: kind, Destination: child(req.Directory, req.Name)})
	}
}
