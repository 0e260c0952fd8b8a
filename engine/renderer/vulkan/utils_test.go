package vulkan

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func TestPresentResult(t *testing.T) {
	assert.Equal(t, metadata.RESULT_SUCCESS, presentResult(vk.Success))
	assert.Equal(t, metadata.RESULT_SUBOPTIMAL, presentResult(vk.Suboptimal))
	assert.Equal(t, metadata.RESULT_OUT_OF_DATE, presentResult(vk.ErrorOutOfDate))
	assert.Equal(t, metadata.RESULT_ERROR, presentResult(vk.ErrorDeviceLost))
	assert.Equal(t, metadata.RESULT_ERROR, presentResult(vk.ErrorSurfaceLost))
}

func TestVulkanResultIsSuccess(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.True(t, VulkanResultIsSuccess(vk.Incomplete))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfDate))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfHostMemory))
}

func TestResultErrorNeverNil(t *testing.T) {
	err := resultError(vk.Incomplete, "vkEnumeratePhysicalDevices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vkEnumeratePhysicalDevices")
	assert.Contains(t, err.Error(), "VK_INCOMPLETE")
}

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))

	in := []string{"VK_KHR_surface", "VK_KHR_swapchain\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"VK_KHR_surface\x00", "VK_KHR_swapchain\x00"}, out)
	assert.Equal(t, "VK_KHR_surface", in[0], "input must not be modified")
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "VK_LAYER")
	assert.Equal(t, "VK_LAYER", cString(name[:]))
	assert.Equal(t, "abc", cString([]byte("abc")))
	assert.Equal(t, "", cString([]byte{0, 'a'}))
}

func TestCullModeFlags(t *testing.T) {
	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), cullModeFlags(metadata.FaceCullModeNone))
	assert.Equal(t, vk.CullModeFlags(vk.CullModeFrontBit), cullModeFlags(metadata.FaceCullModeFront))
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), cullModeFlags(metadata.FaceCullModeBack))
	assert.Equal(t, vk.CullModeFlags(vk.CullModeFrontAndBack), cullModeFlags(metadata.FaceCullModeFrontAndBack))
}

func TestVertexAttributesFollowVertexLayout(t *testing.T) {
	attributes := vertexAttributes()
	require.Len(t, attributes, 4)
	for i, a := range attributes {
		assert.Equal(t, uint32(i), a.Location)
		assert.Equal(t, uint32(0), a.Binding)
	}
	assert.Equal(t, metadata.VertexUVOffset, attributes[3].Offset)
	assert.Equal(t, vk.FormatR32g32Sfloat, attributes[3].Format)
}

func TestLockPoolSerializesGroup(t *testing.T) {
	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(BufferManagement, func() error {
				counter++
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(BufferManagement, func() error {
				counter--
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, counter)
}

func TestPresentLockedMapsResults(t *testing.T) {
	pool := NewVulkanLockPool()

	for _, tc := range []struct {
		in   vk.Result
		want metadata.Result
	}{
		{vk.Success, metadata.RESULT_SUCCESS},
		{vk.Suboptimal, metadata.RESULT_SUBOPTIMAL},
		{vk.ErrorOutOfDate, metadata.RESULT_OUT_OF_DATE},
	} {
		got, err := presentLocked(pool, 1, func() vk.Result { return tc.in })
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	got, err := presentLocked(pool, 1, func() vk.Result { return vk.ErrorDeviceLost })
	require.Error(t, err)
	assert.Equal(t, metadata.RESULT_ERROR, got)
}

func TestLockPoolQueueCallReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	boom := errors.New("boom")
	assert.ErrorIs(t, pool.SafeQueueCall(0, func() error { return boom }), boom)
}

func TestLockPoolQueueCallCreatesMissingFamily(t *testing.T) {
	pool := NewVulkanLockPool()
	called := false
	err := pool.SafeQueueCall(3, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
