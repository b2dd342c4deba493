package export

import (
	"testing"

	"timeslider/testutil"
)

func TestAdapterUsesBlobFacade(t *testing.T) {
	forbidden := testutil.AnyOf(testutil.InfraImportForbidden, testutil.DriverImportForbidden)
	testutil.AssertNoDirectImports(t, ".", forbidden, "adapters depend on blob.Store, not on backends")
}
