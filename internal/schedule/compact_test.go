package schedule

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/me/timetable/internal/logging"
	"github.com/me/timetable/internal/persist"
	"github.com/me/timetable/pkg/model"
	"pgregory.net/rapid"
)

func moveEvents(rec *logging.Recorder) []string {
	var out []string
	for _, e := range rec.Events() {
		if strings.HasPrefix(e, "Moved lecture") {
			out = append(out, e)
		}
	}
	return out
}

func TestCompactWeek_ShiftsToEarliestSlots(t *testing.T) {
	st, gw, rec := testStore(t,
		lecture("2024-06-10", "11:00", "R1", "CompSci"),
		lecture("2024-06-10", "14:00", "R2", "Maths"),
	)
	c := NewCompactor(st, rec, testLogger())

	moves := c.CompactWeek(context.Background(), wednesday)

	if len(moves) != 2 {
		t.Fatalf("moves = %v, want 2", moves)
	}
	if b, ok := st.Get(model.Key{Date: "2024-06-10", Time: "09:00"}); !ok || b.Module != "CompSci" {
		t.Errorf("09:00 = %v, %v; want CompSci", b, ok)
	}
	if b, ok := st.Get(model.Key{Date: "2024-06-10", Time: "10:00"}); !ok || b.Module != "Maths" {
		t.Errorf("10:00 = %v, %v; want Maths", b, ok)
	}
	if st.Len() != 2 {
		t.Errorf("Len = %d, want 2", st.Len())
	}
	if gw.Saves() != 1 {
		t.Errorf("Saves = %d, want exactly one flush after the barrier", gw.Saves())
	}

	events := rec.Events()
	want := []string{
		"Early lectures command received. Rescheduling lectures to earlier slots...",
		"Moved lecture on 2024-06-10 from 11:00 to 09:00",
		"Moved lecture on 2024-06-10 from 14:00 to 10:00",
		"Early lectures rescheduling completed for the week.",
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestCompactDay_LeavesEarlyLecturesInPlace(t *testing.T) {
	st, _, rec := testStore(t,
		lecture("2024-06-11", "09:00", "R1", "A"),
		lecture("2024-06-11", "10:00", "R1", "B"),
		lecture("2024-06-11", "13:00", "R1", "C"),
		lecture("2024-06-11", "16:00", "R1", "D"),
	)
	c := NewCompactor(st, rec, testLogger())

	moves := c.CompactDay("2024-06-11")

	want := []Move{
		{Date: "2024-06-11", From: "13:00", To: "11:00"},
		{Date: "2024-06-11", From: "16:00", To: "12:00"},
	}
	if len(moves) != len(want) {
		t.Fatalf("moves = %v, want %v", moves, want)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Errorf("move %d = %v, want %v", i, moves[i], want[i])
		}
	}
}

func TestCompactWeek_IgnoresOtherWeeks(t *testing.T) {
	st, _, _ := testStore(t,
		lecture("2024-06-03", "15:00", "R1", "LastWeek"),
		lecture("2024-06-15", "15:00", "R1", "Saturday"),
	)
	c := NewCompactor(st, nil, testLogger())

	if moves := c.CompactWeek(context.Background(), wednesday); len(moves) != 0 {
		t.Errorf("moves = %v, want none", moves)
	}
	if _, ok := st.Get(model.Key{Date: "2024-06-03", Time: "15:00"}); !ok {
		t.Error("out-of-week lecture moved")
	}
	if _, ok := st.Get(model.Key{Date: "2024-06-15", Time: "15:00"}); !ok {
		t.Error("weekend lecture moved")
	}
}

func TestCompactDay_OffGridTimes(t *testing.T) {
	st, _, _ := testStore(t,
		lecture("2024-06-12", "08:00", "R1", "Early"),
		lecture("2024-06-12", "09:30", "R1", "HalfPast"),
		lecture("2024-06-12", "18:00", "R1", "Late"),
	)
	c := NewCompactor(st, nil, testLogger())

	moves := c.CompactDay("2024-06-12")

	// 08:00 stays and pushes the cursor to 09:00; 09:30 is later, so it moves
	// to 09:00; 18:00 moves to 10:00.
	want := []Move{
		{Date: "2024-06-12", From: "09:30", To: "09:00"},
		{Date: "2024-06-12", From: "18:00", To: "10:00"},
	}
	if len(moves) != len(want) {
		t.Fatalf("moves = %v, want %v", moves, want)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Errorf("move %d = %v, want %v", i, moves[i], want[i])
		}
	}
}

func TestCompactDay_OverbookedDayRunsPastFive(t *testing.T) {
	var seed []model.Lecture
	for i, s := range model.Slots {
		seed = append(seed, lecture("2024-06-13", s, "R1", string(rune('A'+i))))
	}
	seed = append(seed, lecture("2024-06-13", "19:00", "R1", "Extra"))
	st, _, _ := testStore(t, seed...)
	c := NewCompactor(st, nil, testLogger())

	moves := c.CompactDay("2024-06-13")
	if len(moves) != 1 || moves[0].To != "18:00" {
		t.Fatalf("moves = %v, want 19:00 -> 18:00", moves)
	}
}

// genDay draws lectures at distinct whole hours on one day, from 09:00 up to 20:00.
func genDay(t *rapid.T) []model.Lecture {
	hours := rapid.SliceOfNDistinct(rapid.IntRange(9, 20), 0, 12, rapid.ID[int]).Draw(t, "hours")
	var out []model.Lecture
	for i, h := range hours {
		out = append(out, model.Lecture{
			Date:   "2024-06-12",
			Time:   fmt.Sprintf("%02d:00", h),
			Room:   "R1",
			Module: string(rune('A' + i)),
		})
	}
	return out
}

// dayOrder returns the modules of the day in time order.
func dayOrder(st *Store, date string) []string {
	var out []string
	for _, l := range st.Snapshot() {
		if l.Date == date {
			out = append(out, l.Module)
		}
	}
	return out
}

func TestCompactDay_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := genDay(t)
		rec := logging.NewRecorder(0)
		st := NewStore(persist.NewMemoryGateway(seed...), rec, testLogger())
		if _, err := st.Load(context.Background()); err != nil {
			t.Fatal(err)
		}
		c := NewCompactor(st, rec, testLogger())

		before := dayOrder(st, "2024-06-12")
		c.CompactDay("2024-06-12")
		after := dayOrder(st, "2024-06-12")

		// Nothing is lost or duplicated, and relative order is preserved.
		if strings.Join(before, ",") != strings.Join(after, ",") {
			t.Fatalf("order changed: before %v after %v", before, after)
		}

		// Every slot on the grid hours is now a contiguous block from 09:00.
		times := st.TimesOn("2024-06-12")
		next := model.FirstSlot
		for _, tm := range times {
			if tm != next {
				t.Fatalf("times %v not contiguous from 09:00", times)
			}
			next = model.NextHour(next)
		}

		// A second pass is a fixed point: no moves, no move events.
		logged := len(moveEvents(rec))
		if moves := c.CompactDay("2024-06-12"); len(moves) != 0 {
			t.Fatalf("second pass moved %v", moves)
		}
		if len(moveEvents(rec)) != logged {
			t.Fatalf("second pass logged moves")
		}
	})
}

func TestCompactWeek_AllDaysWithConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	var seed []model.Lecture
	for _, day := range Weekdays(wednesday) {
		seed = append(seed,
			lecture(day, "12:00", "R1", "A"),
			lecture(day, "15:00", "R1", "B"),
			lecture(day, "17:00", "R1", "C"),
		)
	}
	st, _, _ := testStore(t, seed...)
	c := NewCompactor(st, nil, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			st.Add(ctx, lecture("2024-07-01", fmt.Sprintf("%02d:00", 9+i%9), "R9", "Other"))
			st.Snapshot()
		}
	}()
	moves := c.CompactWeek(ctx, wednesday)
	<-done

	if len(moves) != 15 {
		t.Errorf("moves = %d, want 15", len(moves))
	}
	for _, day := range Weekdays(wednesday) {
		got := strings.Join(st.TimesOn(day), ",")
		if got != "09:00,10:00,11:00" {
			t.Errorf("%s times = %s, want 09:00,10:00,11:00", day, got)
		}
		if order := strings.Join(dayOrder(st, day), ""); order != "ABC" {
			t.Errorf("%s order = %s, want ABC", day, order)
		}
	}
}

func TestCompactDay_LectureRemovedMidPass(t *testing.T) {
	ctx := context.Background()
	st, _, rec := testStore(t,
		lecture("2024-06-10", "10:00", "R1", "CompSci"),
		lecture("2024-06-10", "11:00", "R2", "Maths"),
		lecture("2024-06-10", "12:00", "R3", "Physics"),
	)
	c := NewCompactor(st, rec, testLogger())

	// A client removes Maths after the day's times were read but before its move.
	c.beforeMove = func(date, from, to string) {
		if from == "10:00" {
			if err := st.Remove(ctx, lecture("2024-06-10", "11:00", "R2", "Maths")); err != nil {
				t.Errorf("Remove: %v", err)
			}
		}
	}

	moves := c.CompactDay("2024-06-10")

	// The vanished lecture is skipped without moving the cursor, so Physics
	// takes the slot Maths would have had.
	want := []Move{
		{Date: "2024-06-10", From: "10:00", To: "09:00"},
		{Date: "2024-06-10", From: "12:00", To: "10:00"},
	}
	if fmt.Sprint(moves) != fmt.Sprint(want) {
		t.Errorf("moves = %v, want %v", moves, want)
	}
	if got := dayOrder(st, "2024-06-10"); fmt.Sprint(got) != fmt.Sprint([]string{"CompSci", "Physics"}) {
		t.Errorf("day order = %v", got)
	}
	if _, ok := st.Get(model.Key{Date: "2024-06-10", Time: "10:00"}); !ok {
		t.Error("10:00 should hold Physics")
	}
	for _, e := range moveEvents(rec) {
		if strings.Contains(e, "from 11:00") {
			t.Errorf("unexpected move event for removed lecture: %q", e)
		}
	}
	if len(moveEvents(rec)) != 2 {
		t.Errorf("move events = %v, want 2", moveEvents(rec))
	}
}

func TestCompactDay_TargetTakenMidPass(t *testing.T) {
	ctx := context.Background()
	st, _, _ := testStore(t,
		lecture("2024-06-10", "11:00", "R1", "CompSci"),
		lecture("2024-06-10", "13:00", "R2", "Maths"),
	)
	c := NewCompactor(st, nil, testLogger())

	// A client books 09:00 just before CompSci would move there.
	c.beforeMove = func(date, from, to string) {
		if from == "11:00" {
			if err := st.Add(ctx, lecture("2024-06-10", "09:00", "R9", "History")); err != nil {
				t.Errorf("Add: %v", err)
			}
		}
	}

	moves := c.CompactDay("2024-06-10")

	// CompSci stays at 11:00 and the cursor continues after it.
	want := []Move{{Date: "2024-06-10", From: "13:00", To: "12:00"}}
	if fmt.Sprint(moves) != fmt.Sprint(want) {
		t.Errorf("moves = %v, want %v", moves, want)
	}
	if b, ok := st.Get(model.Key{Date: "2024-06-10", Time: "11:00"}); !ok || b.Module != "CompSci" {
		t.Errorf("11:00 = %v, %v; want CompSci", b, ok)
	}
	if b, ok := st.Get(model.Key{Date: "2024-06-10", Time: "09:00"}); !ok || b.Module != "History" {
		t.Errorf("09:00 = %v, %v; want History", b, ok)
	}
}
