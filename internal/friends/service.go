// Package friends implements the friend-graph entity service. Requests are a
// two-party negotiation, so stale state is worse than no state: request reads
// and every transition require connectivity, with no local fallback.
package friends

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer"
	"github.com/rs/zerolog"
)

const (
	requestsCollection = "friendRequests"
	friendsSub         = "friends"
)

type Service interface {
	SendRequest(ctx context.Context, online bool, fromUID, toUID string) (domain.FriendRequest, error)
	AcceptRequest(ctx context.Context, online bool, uid, requestID string) (domain.FriendRequest, error)
	RejectRequest(ctx context.Context, online bool, uid, requestID string) (domain.FriendRequest, error)
	ListRequests(ctx context.Context, online bool, uid string) ([]domain.FriendRequest, error)
	ListFriends(ctx context.Context, online bool, uid string) ([]domain.Friend, error)
	RemoveFriend(ctx context.Context, online bool, uid, friendUID string) (bool, error)
}

type service struct {
	log  zerolog.Logger
	sync *syncer.Service
	bus  EventBus.Bus
}

func NewService(log logger.Logger, sync *syncer.Service, bus EventBus.Bus) Service {
	return &service{
		log:  log.With().Str("module", "friends").Logger(),
		sync: sync,
		bus:  bus,
	}
}

func friendsKey(uid string) string {
	return "friends:" + uid
}

func (s *service) requireOnline(online bool, op string) error {
	if !s.sync.RemoteAvailable(online) {
		return domain.ErrOfflineRejected(op)
	}
	return nil
}

func (s *service) SendRequest(ctx context.Context, online bool, fromUID, toUID string) (domain.FriendRequest, error) {
	if fromUID == "" {
		return domain.FriendRequest{}, domain.ErrMissingField("fromUid")
	}
	if toUID == "" {
		return domain.FriendRequest{}, domain.ErrMissingField("toUid")
	}
	if fromUID == toUID {
		return domain.FriendRequest{}, domain.ErrValidation("cannot send a friend request to yourself")
	}
	if err := s.requireOnline(online, "send friend request"); err != nil {
		return domain.FriendRequest{}, err
	}

	pending, err := s.sync.RemoteList(ctx, requestsCollection, []domain.Filter{
		{Field: "fromUid", Op: "==", Value: fromUID},
		{Field: "toUid", Op: "==", Value: toUID},
		{Field: "status", Op: "==", Value: domain.FriendRequestPending},
	})
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if len(pending) > 0 {
		return domain.FriendRequest{}, domain.ErrValidation("a pending request to this user already exists")
	}

	req := domain.FriendRequest{
		FromUID:   fromUID,
		ToUID:     toUID,
		Status:    domain.FriendRequestPending,
		CreatedAt: time.Now().UTC(),
	}
	doc, err := syncer.ToDoc(req)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	delete(doc, "id")

	id, err := s.sync.RemoteAdd(ctx, requestsCollection, doc)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	req.ID = id

	s.log.Debug().Str("from", fromUID).Str("to", toUID).Str("request", id).Msg("friend request sent")
	return req, nil
}

// transition loads a request and validates the state machine: only the
// recipient may act, and only on a pending request.
func (s *service) transition(ctx context.Context, uid, requestID string) (domain.FriendRequest, error) {
	doc, err := s.sync.RemoteGet(ctx, requestsCollection, requestID)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if doc == nil {
		return domain.FriendRequest{}, domain.ErrNotFound("friend request", requestID)
	}

	req, err := syncer.FromDoc[domain.FriendRequest](doc)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if req.ToUID != uid {
		return domain.FriendRequest{}, domain.ErrValidation("only the recipient may respond to a friend request")
	}
	if req.Status != domain.FriendRequestPending {
		return domain.FriendRequest{}, domain.ErrValidation("friend request is already %s", req.Status)
	}
	return req, nil
}

func (s *service) AcceptRequest(ctx context.Context, online bool, uid, requestID string) (domain.FriendRequest, error) {
	if uid == "" {
		return domain.FriendRequest{}, domain.ErrMissingField("uid")
	}
	if requestID == "" {
		return domain.FriendRequest{}, domain.ErrMissingField("requestId")
	}
	if err := s.requireOnline(online, "accept friend request"); err != nil {
		return domain.FriendRequest{}, err
	}

	req, err := s.transition(ctx, uid, requestID)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	now := time.Now().UTC()
	req.Status = domain.FriendRequestAccepted
	req.RespondedAt = &now

	if err := s.sync.RemoteUpdate(ctx, requestsCollection, requestID, map[string]interface{}{
		"status":      req.Status,
		"respondedAt": now.Format(time.RFC3339),
	}); err != nil {
		return domain.FriendRequest{}, err
	}

	// acceptance materializes both halves of the friendship
	pairs := []domain.Friend{
		{UserID: req.FromUID, FriendUID: req.ToUID, Since: now},
		{UserID: req.ToUID, FriendUID: req.FromUID, Since: now},
	}
	for _, f := range pairs {
		doc, err := syncer.ToDoc(f)
		if err != nil {
			return domain.FriendRequest{}, err
		}
		if err := s.sync.RemoteSet(ctx, domain.UserCollection(f.UserID, friendsSub), f.FriendUID, doc); err != nil {
			return domain.FriendRequest{}, domain.ErrOperation(err, "could not record friendship for %s", f.UserID)
		}
	}

	s.sync.Invalidate(friendsKey(req.FromUID), friendsKey(req.ToUID))
	s.bus.Publish(domain.EventFriendAccepted, domain.FriendAccepted{
		FromUID:    req.FromUID,
		ToUID:      req.ToUID,
		AcceptedAt: now,
	})

	s.log.Info().Str("from", req.FromUID).Str("to", req.ToUID).Msg("friend request accepted")
	return req, nil
}

func (s *service) RejectRequest(ctx context.Context, online bool, uid, requestID string) (domain.FriendRequest, error) {
	if uid == "" {
		return domain.FriendRequest{}, domain.ErrMissingField("uid")
	}
	if requestID == "" {
		return domain.FriendRequest{}, domain.ErrMissingField("requestId")
	}
	if err := s.requireOnline(online, "reject friend request"); err != nil {
		return domain.FriendRequest{}, err
	}

	req, err := s.transition(ctx, uid, requestID)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	now := time.Now().UTC()
	req.Status = domain.FriendRequestRejected
	req.RespondedAt = &now

	if err := s.sync.RemoteUpdate(ctx, requestsCollection, requestID, map[string]interface{}{
		"status":      req.Status,
		"respondedAt": now.Format(time.RFC3339),
	}); err != nil {
		return domain.FriendRequest{}, err
	}

	return req, nil
}

func (s *service) ListRequests(ctx context.Context, online bool, uid string) ([]domain.FriendRequest, error) {
	if uid == "" {
		return nil, domain.ErrMissingField("uid")
	}
	if err := s.requireOnline(online, "list friend requests"); err != nil {
		return nil, err
	}

	docs, err := s.sync.RemoteList(ctx, requestsCollection, []domain.Filter{
		{Field: "toUid", Op: "==", Value: uid},
		{Field: "status", Op: "==", Value: domain.FriendRequestPending},
	})
	if err != nil {
		return nil, err
	}
	return syncer.FromDocs[domain.FriendRequest](docs)
}

func (s *service) ListFriends(ctx context.Context, online bool, uid string) ([]domain.Friend, error) {
	if uid == "" {
		return nil, domain.ErrMissingField("uid")
	}

	docs, err := s.sync.FetchCollection(ctx, online, syncer.ListRequest{
		CacheKey:   friendsKey(uid),
		Collection: domain.UserCollection(uid, friendsSub),
	})
	if err != nil {
		return nil, err
	}
	return syncer.FromDocs[domain.Friend](docs)
}

func (s *service) RemoveFriend(ctx context.Context, online bool, uid, friendUID string) (bool, error) {
	if uid == "" {
		return false, domain.ErrMissingField("uid")
	}
	if friendUID == "" {
		return false, domain.ErrMissingField("friendUid")
	}
	if err := s.requireOnline(online, "remove friend"); err != nil {
		return false, err
	}

	if err := s.sync.RemoteDelete(ctx, domain.UserCollection(uid, friendsSub), friendUID); err != nil {
		return false, err
	}
	if err := s.sync.RemoteDelete(ctx, domain.UserCollection(friendUID, friendsSub), uid); err != nil {
		s.log.Warn().Err(err).Str("uid", friendUID).Msg("removing the reciprocal friend record failed")
	}

	s.sync.Invalidate(friendsKey(uid), friendsKey(friendUID))
	return true, nil
}
