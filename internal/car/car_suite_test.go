package car

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCar(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "car suite")
}
