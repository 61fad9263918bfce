package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"beatstore/logger"
	"beatstore/model"
	"beatstore/repository"

	"github.com/gorilla/mux"
)

// PurchaseHandler records a purchase of a beat by the current user. A second
// attempt for the same beat reports the existing entitlement and writes nothing.
func (h *Handler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	beat, err := h.beatRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to load beat", logger.Int64("beatId", id), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if beat == nil {
		http.NotFound(w, r)
		return
	}

	purchase := &model.Purchase{
		UserID: user.ID,
		BeatID: beat.ID,
	}
	if err := h.purchaseRepo.Create(r.Context(), purchase); err != nil {
		if errors.Is(err, repository.ErrAlreadyPurchased) {
			h.flashAndRedirect(w, r, "You already purchased this beat", fmt.Sprintf("/beat/%d", beat.ID))
			return
		}
		logger.Error("Failed to record purchase",
			logger.Int64("userId", user.ID),
			logger.Int64("beatId", beat.ID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("Purchase recorded",
		logger.Int64("purchaseId", purchase.ID),
		logger.Int64("userId", user.ID),
		logger.Int64("beatId", beat.ID))
	h.flashAndRedirect(w, r, "Purchase successful!", "/profile")
}
