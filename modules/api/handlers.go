package api

import (
	"errors"
	"net/http"
	"strings"

	"blockballot/modules/common"
	"blockballot/modules/ledger/contract"
	"blockballot/modules/voting"

	"github.com/gin-gonic/gin"
	"github.com/moznion/go-optional"
)

type castVoteBody struct {
	ContractAddress string              `json:"contract_address"`
	Votes           []contract.VotePair `json:"votes"`

	// Legacy single-selection fields.
	Position  string `json:"position"`
	Candidate string `json:"candidate"`
}

func (s *apiServer) castVote(c *gin.Context) {
	identity, err := s.authenticate(c)
	if err != nil {
		s.renderError(c, err)
		return
	}

	var body castVoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.renderError(c, common.ValidationError{Reason: "invalid request payload"})
		return
	}

	receipt, err := s.voting.CastVote(c.Request.Context(), voting.CastVoteRequest{
		ElectionID:      c.Param("electionId"),
		VoterID:         identity.Contact,
		Votes:           body.Votes,
		ContractAddress: body.ContractAddress,
		Position:        body.Position,
		Candidate:       body.Candidate,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"tx_hash":         receipt.TxHash,
		"votes_processed": receipt.VotesProcessed,
		"timestamp":       receipt.CastAt,
	})
}

func (s *apiServer) getResults(c *gin.Context) {
	// The credential is optional here: an election's creator may view
	// results early, everyone else only after the window closes.
	requester := optional.None[string]()
	if c.GetHeader("Authorization") != "" {
		identity, err := s.authenticate(c)
		if err != nil {
			s.renderError(c, err)
			return
		}
		requester = optional.Some(identity.Contact)
	}

	res, err := s.results.Compute(c.Request.Context(), c.Param("electionId"), requester)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *apiServer) authenticate(c *gin.Context) (*Identity, error) {
	header := c.GetHeader("Authorization")
	credential, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || credential == "" {
		return nil, common.UnauthorizedError{Reason: "missing bearer credential"}
	}
	return s.auth.Verify(c.Request.Context(), credential)
}

func (s *apiServer) renderError(c *gin.Context, err error) {
	status := statusForError(err)
	switch {
	case status == http.StatusInternalServerError:
		s.log.Error("request failed", c.Request.Method, c.Request.URL.Path, err)
		var limited common.UpstreamRateLimitError
		if errors.As(err, &limited) {
			c.JSON(status, gin.H{"error": "ledger is busy, please retry later"})
			return
		}
		c.JSON(status, gin.H{"error": "internal error"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

// statusForError maps the failure taxonomy onto HTTP statuses. Contract
// reverts and conflicts are caller errors: the ballot was rejected, not
// the system failing.
func statusForError(err error) int {
	var (
		validation   common.ValidationError
		unauthorized common.UnauthorizedError
		forbidden    common.ForbiddenError
		notFound     common.NotFoundError
		conflict     common.ConflictError
		revert       common.ContractRevertError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &conflict), errors.As(err, &revert):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
