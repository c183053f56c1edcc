package integrators_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegrators(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integrators Suite")
}
