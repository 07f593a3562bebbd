package http

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAdmissionsAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Admissions API Suite")
}
