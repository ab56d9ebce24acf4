package memory_test

import (
	"testing"

	"github.com/aretw0/manipd/pkg/adapters/memory"
	"github.com/aretw0/manipd/pkg/ports"
)

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}
