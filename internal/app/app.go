// Package app exposes the facade the UI and other collaborators call: one
// method per entity operation, each folding the service outcome into a
// domain.Result so nothing panics or leaks transport errors across the
// boundary.
package app

import (
	"context"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/friends"
	"github.com/fitsyncd/fitsync/internal/profile"
	"github.com/fitsyncd/fitsync/internal/weightlog"
	"github.com/fitsyncd/fitsync/internal/workout"
)

type App struct {
	profile   profile.Service
	workout   workout.Service
	weightlog weightlog.Service
	friends   friends.Service
}

func New(profileSvc profile.Service, workoutSvc workout.Service, weightlogSvc weightlog.Service, friendsSvc friends.Service) *App {
	return &App{
		profile:   profileSvc,
		workout:   workoutSvc,
		weightlog: weightlogSvc,
		friends:   friendsSvc,
	}
}

// Profile

func (a *App) SaveProfile(ctx context.Context, online bool, p domain.UserProfile) domain.Result[domain.UserProfile] {
	return domain.ResultOf(a.profile.Save(ctx, online, p))
}

func (a *App) GetProfile(ctx context.Context, online bool, uid string) domain.Result[*domain.UserProfile] {
	return domain.ResultOf(a.profile.Get(ctx, online, uid))
}

func (a *App) DeleteProfile(ctx context.Context, online bool, uid string) domain.Result[bool] {
	return domain.ResultOf(a.profile.Delete(ctx, online, uid))
}

// Weight log

func (a *App) LogWeight(ctx context.Context, online bool, entry domain.WeightLogEntry) domain.Result[domain.WeightLogEntry] {
	return domain.ResultOf(a.weightlog.Log(ctx, online, entry))
}

func (a *App) GetWeightLog(ctx context.Context, online bool, uid string) domain.Result[[]domain.WeightLogEntry] {
	return domain.ResultOf(a.weightlog.Get(ctx, online, uid))
}

func (a *App) UpdateWeightEntry(ctx context.Context, online bool, entry domain.WeightLogEntry) domain.Result[domain.WeightLogEntry] {
	return domain.ResultOf(a.weightlog.Update(ctx, online, entry))
}

func (a *App) DeleteWeightEntry(ctx context.Context, online bool, uid, id string) domain.Result[bool] {
	return domain.ResultOf(a.weightlog.DeleteEntry(ctx, online, uid, id))
}

// Workouts and plans

func (a *App) SaveWorkout(ctx context.Context, online bool, w domain.Workout) domain.Result[domain.Workout] {
	return domain.ResultOf(a.workout.SaveWorkout(ctx, online, w))
}

func (a *App) GetWorkouts(ctx context.Context, online bool, uid string) domain.Result[[]domain.Workout] {
	return domain.ResultOf(a.workout.GetWorkouts(ctx, online, uid))
}

func (a *App) DeleteWorkout(ctx context.Context, online bool, uid, id string) domain.Result[bool] {
	return domain.ResultOf(a.workout.DeleteWorkout(ctx, online, uid, id))
}

func (a *App) SaveWorkoutPlan(ctx context.Context, online bool, p domain.WorkoutPlan) domain.Result[domain.WorkoutPlan] {
	return domain.ResultOf(a.workout.SavePlan(ctx, online, p))
}

func (a *App) GetWorkoutPlans(ctx context.Context, online bool, uid string) domain.Result[[]domain.WorkoutPlan] {
	return domain.ResultOf(a.workout.GetPlans(ctx, online, uid))
}

func (a *App) DeleteWorkoutPlan(ctx context.Context, online bool, uid, id string) domain.Result[bool] {
	return domain.ResultOf(a.workout.DeletePlan(ctx, online, uid, id))
}

func (a *App) SyncAll(ctx context.Context, online bool, uid string) domain.Result[domain.SyncSummary] {
	return domain.ResultOf(a.workout.SyncAll(ctx, online, uid))
}

// Friend graph

func (a *App) SendFriendRequest(ctx context.Context, online bool, fromUID, toUID string) domain.Result[domain.FriendRequest] {
	return domain.ResultOf(a.friends.SendRequest(ctx, online, fromUID, toUID))
}

func (a *App) AcceptFriendRequest(ctx context.Context, online bool, uid, requestID string) domain.Result[domain.FriendRequest] {
	return domain.ResultOf(a.friends.AcceptRequest(ctx, online, uid, requestID))
}

func (a *App) RejectFriendRequest(ctx context.Context, online bool, uid, requestID string) domain.Result[domain.FriendRequest] {
	return domain.ResultOf(a.friends.RejectRequest(ctx, online, uid, requestID))
}

func (a *App) ListFriendRequests(ctx context.Context, online bool, uid string) domain.Result[[]domain.FriendRequest] {
	return domain.ResultOf(a.friends.ListRequests(ctx, online, uid))
}

func (a *App) ListFriends(ctx context.Context, online bool, uid string) domain.Result[[]domain.Friend] {
	return domain.ResultOf(a.friends.ListFriends(ctx, online, uid))
}

func (a *App) RemoveFriend(ctx context.Context, online bool, uid, friendUID string) domain.Result[bool] {
	return domain.ResultOf(a.friends.RemoveFriend(ctx, online, uid, friendUID))
}
