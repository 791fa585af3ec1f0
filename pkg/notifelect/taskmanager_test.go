package notifelect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskManagerWaitReturnsNilWhenAllSucceed(t *testing.T) {
	var tm TaskManager
	done := make(chan struct{})
	tm.Go(func() error {
		close(done)
		return nil
	})

	<-done
	assert.NoError(t, tm.Wait())
}

func TestTaskManagerWaitSurfacesFirstError(t *testing.T) {
	var tm TaskManager
	boom := errors.New("boom")
	tm.Go(func() error { return boom })
	tm.Go(func() error { return nil })

	assert.ErrorIs(t, tm.Wait(), boom)
}
