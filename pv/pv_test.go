package pv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/version"
)

func TestConnect_DeliversWrites(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewScalarOutput[int32](sender, "/Test/value")
	in := pv.NewScalarPushInput[int32](receiver, "/Test/value")

	if err := pv.Connect(out, in); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	sender.NewVersion()
	if err := out.SetAndWrite(12); err != nil {
		t.Fatalf("SetAndWrite() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := in.ReadAndGet(ctx)
	if err != nil {
		t.Fatalf("ReadAndGet() error = %v", err)
	}
	if got != 12 {
		t.Errorf("ReadAndGet() = %d, want 12", got)
	}
	if !in.Version().Equal(out.Version()) {
		t.Errorf("input version %s should equal output version %s", in.Version(), out.Version())
	}
}

func TestInput_VisibleValueUpdatedOnDelivery(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewScalarOutput[float64](sender, "/Test/value")
	in := pv.NewScalarPushInput[float64](receiver, "/Test/value")
	if err := pv.Connect(out, in); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	// Nothing delivered yet: zero value, null version.
	if in.Get() != 0 {
		t.Errorf("Get() before delivery = %v, want 0", in.Get())
	}
	if !in.Version().IsNull() {
		t.Errorf("Version() before delivery = %s, want null", in.Version())
	}

	sender.NewVersion()
	_ = out.SetAndWrite(2.5)

	// Queued but not applied: the visible value is unchanged until read.
	if in.Get() != 0 {
		t.Errorf("Get() before read = %v, want 0", in.Get())
	}
	if in.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", in.Pending())
	}

	ev, ok := in.ReadNonBlocking()
	if !ok || !ev.IsValid() {
		t.Fatal("ReadNonBlocking() should apply the pending update")
	}
	if in.Get() != 2.5 {
		t.Errorf("Get() after read = %v, want 2.5", in.Get())
	}
}

func TestInput_QueueOverflowRetiresOldest(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewScalarOutput[int32](sender, "/Test/value")
	in := pv.NewScalarPushInput[int32](receiver, "/Test/value", pv.WithQueueDepth(2))
	if err := pv.Connect(out, in); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	for i := int32(1); i <= 5; i++ {
		sender.NewVersion()
		_ = out.SetAndWrite(i)
	}

	if in.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", in.Pending())
	}
	if in.LostUpdates() != 3 {
		t.Errorf("LostUpdates() = %d, want 3", in.LostUpdates())
	}

	// The retained updates are the newest two, in production order.
	ctx := context.Background()
	got, _ := in.ReadAndGet(ctx)
	if got != 4 {
		t.Errorf("first retained update = %d, want 4", got)
	}
	got, _ = in.ReadAndGet(ctx)
	if got != 5 {
		t.Errorf("second retained update = %d, want 5", got)
	}
}

func TestInput_ReadLatestDrainsQueue(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewScalarOutput[int32](sender, "/Test/value")
	in := pv.NewScalarPushInput[int32](receiver, "/Test/value")
	_ = pv.Connect(out, in)

	for i := int32(1); i <= 3; i++ {
		sender.NewVersion()
		_ = out.SetAndWrite(i * 10)
	}

	ev, ok := in.ReadLatest()
	if !ok {
		t.Fatal("ReadLatest() should report an applied update")
	}
	if in.Get() != 30 {
		t.Errorf("Get() after ReadLatest = %d, want 30", in.Get())
	}
	if !ev.Version.Equal(in.Version()) {
		t.Error("returned event should carry the applied version")
	}

	if _, ok := in.ReadLatest(); ok {
		t.Error("ReadLatest() on an empty queue should report no update")
	}
}

func TestInput_ReadBlocksUntilWrite(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewScalarOutput[int32](sender, "/Test/value")
	in := pv.NewScalarPushInput[int32](receiver, "/Test/value")
	_ = pv.Connect(out, in)

	go func() {
		time.Sleep(20 * time.Millisecond)
		sender.NewVersion()
		_ = out.SetAndWrite(7)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := in.ReadAndGet(ctx)
	if err != nil {
		t.Fatalf("ReadAndGet() error = %v", err)
	}
	if got != 7 {
		t.Errorf("ReadAndGet() = %d, want 7", got)
	}
}

func TestInput_ReadHonoursContext(t *testing.T) {
	receiver := pv.NewOwner("Receiver")
	in := pv.NewScalarPushInput[int32](receiver, "/Test/value")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := in.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Read() error = %v, want deadline exceeded", err)
	}
}

func TestArray_WriteAndDeliver(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewArrayOutput[int32](sender, "/Test/array", 4)
	in := pv.NewArrayPushInput[int32](receiver, "/Test/array", 4)
	if err := pv.Connect(out, in); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	sender.NewVersion()
	if err := out.SetAndWrite([]int32{24, 24, 24, 24}); err != nil {
		t.Fatalf("SetAndWrite() error = %v", err)
	}

	ctx := context.Background()
	got, err := in.ReadAndGet(ctx)
	if err != nil {
		t.Fatalf("ReadAndGet() error = %v", err)
	}
	for i, v := range got {
		if v != 24 {
			t.Errorf("got[%d] = %d, want 24", i, v)
		}
	}

	// Delivered values are copies: mutating the returned slice must not
	// change the visible value.
	got[0] = 99
	if in.Get()[0] != 24 {
		t.Error("Get() should return an independent copy")
	}
}

func TestArrayOutput_RejectsWrongLength(t *testing.T) {
	sender := pv.NewOwner("Sender")
	out := pv.NewArrayOutput[int32](sender, "/Test/array", 4)

	err := out.SetAndWrite([]int32{1, 2})
	if !errors.Is(err, pv.ErrLengthMismatch) {
		t.Errorf("SetAndWrite() error = %v, want ErrLengthMismatch", err)
	}
}

func TestConnect_TypeMismatch(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out := pv.NewScalarOutput[int32](sender, "/Test/value")
	in := pv.NewScalarPushInput[float64](receiver, "/Test/value")

	err := pv.Connect(out, in)
	if !errors.Is(err, pv.ErrTypeMismatch) {
		t.Errorf("Connect() error = %v, want ErrTypeMismatch", err)
	}
}

func TestPushRaw_Conversions(t *testing.T) {
	receiver := pv.NewOwner("Receiver")
	ctx := context.Background()

	t.Run("json number to int32", func(t *testing.T) {
		in := pv.NewScalarPushInput[int32](receiver, "/Test/a")
		if err := pv.PushRaw(in, float64(42), version.New()); err != nil {
			t.Fatalf("PushRaw() error = %v", err)
		}
		got, _ := in.ReadAndGet(ctx)
		if got != 42 {
			t.Errorf("value = %d, want 42", got)
		}
	})

	t.Run("number to string rejected", func(t *testing.T) {
		in := pv.NewScalarPushInput[string](receiver, "/Test/b")
		err := pv.PushRaw(in, float64(42), version.New())
		if !errors.Is(err, pv.ErrBadValue) {
			t.Errorf("PushRaw() error = %v, want ErrBadValue", err)
		}
	})

	t.Run("any slice to int32 array", func(t *testing.T) {
		in := pv.NewArrayPushInput[int32](receiver, "/Test/c", 3)
		raw := []any{float64(1), float64(2), float64(3)}
		if err := pv.PushRaw(in, raw, version.New()); err != nil {
			t.Fatalf("PushRaw() error = %v", err)
		}
		got, _ := in.ReadAndGet(ctx)
		if got[2] != 3 {
			t.Errorf("got = %v, want [1 2 3]", got)
		}
	})

	t.Run("wrong array length rejected", func(t *testing.T) {
		in := pv.NewArrayPushInput[int32](receiver, "/Test/d", 3)
		err := pv.PushRaw(in, []any{float64(1)}, version.New())
		if !errors.Is(err, pv.ErrLengthMismatch) {
			t.Errorf("PushRaw() error = %v, want ErrLengthMismatch", err)
		}
	})
}

func TestOwner_VersionStamping(t *testing.T) {
	sender := pv.NewOwner("Sender")
	receiver := pv.NewOwner("Receiver")

	out1 := pv.NewScalarOutput[int32](sender, "/Test/a")
	out2 := pv.NewScalarOutput[int32](sender, "/Test/b")
	in1 := pv.NewScalarPushInput[int32](receiver, "/Test/a")
	in2 := pv.NewScalarPushInput[int32](receiver, "/Test/b")
	_ = pv.Connect(out1, in1)
	_ = pv.Connect(out2, in2)

	// Writes within one cycle share the module's current version.
	sender.NewVersion()
	_ = out1.SetAndWrite(1)
	_ = out2.SetAndWrite(2)

	ctx := context.Background()
	ev1, _ := in1.Read(ctx)
	ev2, _ := in2.Read(ctx)
	if !ev1.Version.Equal(ev2.Version) {
		t.Errorf("writes in one cycle should share a version: %s vs %s", ev1.Version, ev2.Version)
	}

	// A new cycle produces a strictly greater version.
	sender.NewVersion()
	_ = out1.SetAndWrite(3)
	ev3, _ := in1.Read(ctx)
	if !ev3.Version.After(ev1.Version) {
		t.Errorf("next cycle version %s should order after %s", ev3.Version, ev1.Version)
	}
}
