package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	"remindbot/pkg/logx"
)

func newService(t *testing.T, now *time.Time) (*reminder.Service, storage.Store) {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "sqlite", Path: ":memory:"}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	svc := reminder.NewService(st,
		reminder.WithLocation(time.UTC),
		reminder.WithClock(func() time.Time { return *now }),
	)
	return svc, st
}

func TestServiceLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &now)

	a, err := svc.Create(ctx, 7, "01.03.2030 10:05 call mom")
	require.NoError(t, err)
	require.NotZero(t, a.ID)
	require.Equal(t, "2030-03-01 10:05 call mom", a.String())

	b, err := svc.Create(ctx, 7, "02.03.2030 08:00 gym")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 8, "01.03.2030 10:05 other chat")
	require.NoError(t, err)

	_, err = svc.Create(ctx, 7, "01.03.2030 08:00 too late")
	require.ErrorIs(t, err, reminder.ErrPastDateTime)

	all, err := svc.All(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID, b.ID}, ids(all))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	due, err := svc.Due(ctx, time.Date(2030, 3, 1, 10, 5, 42, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 2)

	due, err = svc.Due(ctx, time.Date(2030, 3, 1, 10, 6, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, due)

	// An hour later a is past and b still ahead.
	now = time.Date(2030, 3, 1, 11, 0, 0, 0, time.UTC)
	fut, err := svc.Future(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []int64{b.ID}, ids(fut))

	deleted, err := svc.DeletePast(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID}, ids(deleted))

	all, err = svc.All(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []int64{b.ID}, ids(all))

	deleted, err = svc.DeletePast(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, deleted)
}

func TestServiceDueUsesServiceZone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &now)

	task, err := svc.Create(ctx, 1, "01.03.2030 12:00 lunch")
	require.NoError(t, err)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 12:00 UTC observed from Tokyo is 21:00 local.
	due, err := svc.Due(ctx, time.Date(2030, 3, 1, 21, 0, 10, 0, tokyo))
	require.NoError(t, err)
	require.Equal(t, []int64{task.ID}, ids(due))

	svc.SetLocation(tokyo)
	require.Equal(t, "Asia/Tokyo", svc.Location().String())
	due, err = svc.Due(ctx, time.Date(2030, 3, 1, 21, 0, 10, 0, tokyo))
	require.NoError(t, err)
	require.Empty(t, due)
}

type failingStore struct {
	reminder.Store
	deleteErr map[int64]error
}

func (f failingStore) Delete(ctx context.Context, id int64) error {
	if err, ok := f.deleteErr[id]; ok {
		return err
	}
	return f.Store.Delete(ctx, id)
}

func TestServiceDeletePastPartialFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, err := storage.Open(storage.Config{Driver: "sqlite", Path: ":memory:"}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var saved []reminder.Task
	for _, h := range []int{8, 9, 10} {
		task, err := st.Save(ctx, reminder.Task{
			ChatID:      3,
			MessageText: "x",
			Date:        reminder.Date{Year: 2030, Month: time.March, Day: 1},
			Time:        reminder.Clock{Hour: h},
		})
		require.NoError(t, err)
		saved = append(saved, task)
	}

	boom := errors.New("disk full")
	svc := reminder.NewService(
		failingStore{Store: st, deleteErr: map[int64]error{saved[1].ID: boom}},
		reminder.WithLocation(time.UTC),
		reminder.WithClock(func() time.Time { return time.Date(2030, 3, 2, 0, 0, 0, 0, time.UTC) }),
	)

	deleted, err := svc.DeletePast(ctx, 3)
	require.ErrorIs(t, err, reminder.ErrStoreUnavailable)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int64{saved[0].ID, saved[2].ID}, ids(deleted))

	left, err := svc.All(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{saved[1].ID}, ids(left))
}
