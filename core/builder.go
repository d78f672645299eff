package core

// =============================================================================
// Builder: Spawn configuration
// =============================================================================

// Builder customizes a coroutine before spawning it.
//
// Defaults: auto-start enabled, variable-rate poll channel, tick priority 0.
// Builders are single-use: configure, then Spawn.
type Builder struct {
	owner *Owner

	body   CoroutineFunc
	future FutureFunc

	autoStart bool
	pollMode  PollMode
	priority  int
	onFinish  []func(result any)
}

func newBuilder(o *Owner) *Builder {
	return &Builder{
		owner:     o,
		autoStart: true,
		pollMode:  PollModeVariable,
	}
}

// Coroutine starts building a step-function coroutine owned by o.
func (o *Owner) Coroutine(f CoroutineFunc) *Builder {
	b := newBuilder(o)
	b.body = f
	return b
}

// AsyncTask starts building a future-based task owned by o. The function runs
// on the ticker's reactor workers; the handle observes its resolution once
// per tick. Spawning fails if the ticker has no reactor configured.
func (o *Owner) AsyncTask(f FutureFunc) *Builder {
	b := newBuilder(o)
	b.future = f
	return b
}

// StartCoroutine spawns a step-function coroutine with default settings.
func (o *Owner) StartCoroutine(f CoroutineFunc) (*Handle, error) {
	return o.Coroutine(f).Spawn()
}

// StartAsyncTask spawns a future-based task with default settings.
func (o *Owner) StartAsyncTask(f FutureFunc) (*Handle, error) {
	return o.AsyncTask(f).Spawn()
}

// AutoStart controls whether the coroutine starts ticking immediately.
// If false, the handle spawns paused and needs an explicit Resume.
func (b *Builder) AutoStart(autoStart bool) *Builder {
	b.autoStart = autoStart
	return b
}

// PollMode selects the tick channel that delivers effective ticks.
func (b *Builder) PollMode(mode PollMode) *Builder {
	b.pollMode = mode
	return b
}

// TickPriority sets the ordering hint among siblings under the same owner.
// Lower values tick first; equal values keep spawn order.
func (b *Builder) TickPriority(priority int) *Builder {
	b.priority = priority
	return b
}

// OnFinish adds f to the callbacks invoked, in registration order, when the
// coroutine finishes normally. The coroutine's result is passed to f.
// Callbacks run synchronously within the tick that detected completion.
func (b *Builder) OnFinish(f func(result any)) *Builder {
	b.onFinish = append(b.onFinish, f)
	return b
}

// Spawn completes the builder: the computation is wrapped in a handle,
// registered, and attached beneath the owner. Spawning under an owner that is
// already destroyed fails fast with ErrOwnerDestroyed; nothing of the
// computation runs before the first effective tick.
func (b *Builder) Spawn() (*Handle, error) {
	o := b.owner
	t := o.ticker
	metrics := newTickerCounters(t)

	if o.Destroyed() {
		metrics.RecordSpawnRejected(o.name, "owner destroyed")
		return nil, ErrOwnerDestroyed
	}

	comp, err := b.buildComputation(t)
	if err != nil {
		metrics.RecordSpawnRejected(o.name, err.Error())
		return nil, err
	}

	h := &Handle{
		owner:    o,
		pollMode: b.pollMode,
		priority: b.priority,
		comp:     comp,
		logger:   t.logger,
		metrics:  metrics,
		faults:   t.faults,
		done:     make(chan Completion, 1),
		paused:   !b.autoStart,
		onFinish: b.onFinish,
	}
	h.id = registerHandle(h)

	if err := o.attach(h); err != nil {
		// The owner was destroyed between the check and the attach.
		unregisterHandle(h.id)
		comp.dispose()
		close(h.done)
		metrics.RecordSpawnRejected(o.name, err.Error())
		return nil, err
	}

	h.mu.Lock()
	h.spawned = true
	h.mu.Unlock()

	metrics.RecordLiveHandles(LiveHandleCount())
	t.logger.Debug("coroutine spawned",
		F("handle", h.id), F("owner", o.name), F("mode", b.pollMode))
	return h, nil
}

func (b *Builder) buildComputation(t *Ticker) (computation, error) {
	if b.future != nil {
		if t.reactor == nil {
			return nil, ErrNoReactor
		}
		task, err := t.reactor.Submit(b.future)
		if err != nil {
			return nil, err
		}
		return newFutureComputation(task), nil
	}
	return newStepComputation(b.body), nil
}
