package graph

import "github.com/gogpu/rendergraph/rgtypes"

// imageLayoutFor maps a usage to the image layout a resource must be
// in while that usage is active, per spec section 4.8's layout table.
// Read and read-write access never change the layout a usage implies;
// only the usage itself determines layout.
func imageLayoutFor(usage rgtypes.Usage) rgtypes.ImageLayout {
	switch usage {
	case rgtypes.UsageColorAttachment:
		return rgtypes.ImageLayoutColorAttachment
	case rgtypes.UsageDepthAttachment:
		return rgtypes.ImageLayoutDepthStencilAttachment
	case rgtypes.UsageSampled:
		return rgtypes.ImageLayoutShaderReadOnly
	case rgtypes.UsageStorage, rgtypes.UsageStorageReadWrite:
		return rgtypes.ImageLayoutGeneral
	case rgtypes.UsageTransferSource:
		return rgtypes.ImageLayoutTransferSrc
	case rgtypes.UsageTransferDestination:
		return rgtypes.ImageLayoutTransferDst
	case rgtypes.UsagePresent:
		return rgtypes.ImageLayoutPresentSrc
	default:
		return rgtypes.ImageLayoutUndefined
	}
}

// imageStageFor resolves the pipeline stage a usage executes at: an
// explicit stage is returned as is, while StageNone or StageInfer fall
// back to inferStage. Declared image usages arrive already resolved by
// the pass builder; swapchain usages carry no stage and pass StageInfer.
func imageStageFor(explicit rgtypes.PipelineStage, usage rgtypes.Usage) rgtypes.PipelineStage {
	if explicit != rgtypes.StageNone && explicit != rgtypes.StageInfer {
		return explicit
	}
	return inferStage(usage)
}

// imageAccessMaskFor maps (usage, access) to the access mask the
// barrier planner puts on an image barrier, per spec section 4.8.
// Read-write usages OR together the read and write masks for the same
// usage kind.
func imageAccessMaskFor(usage rgtypes.Usage, access rgtypes.AccessType) rgtypes.AccessMask {
	switch usage {
	case rgtypes.UsageColorAttachment:
		return combineAccess(access, rgtypes.AccessMaskColorAttachmentRead, rgtypes.AccessMaskColorAttachmentWrite)
	case rgtypes.UsageDepthAttachment:
		return combineAccess(access, rgtypes.AccessMaskDepthStencilAttachmentRead, rgtypes.AccessMaskDepthStencilAttachmentWrite)
	case rgtypes.UsageSampled:
		return rgtypes.AccessMaskShaderRead
	case rgtypes.UsageStorage:
		return rgtypes.AccessMaskShaderRead
	case rgtypes.UsageStorageReadWrite:
		return rgtypes.AccessMaskShaderRead | rgtypes.AccessMaskShaderWrite
	case rgtypes.UsageTransferSource:
		return rgtypes.AccessMaskTransferRead
	case rgtypes.UsageTransferDestination:
		return rgtypes.AccessMaskTransferWrite
	case rgtypes.UsagePresent:
		return rgtypes.AccessMaskNone
	default:
		return rgtypes.AccessMaskNone
	}
}

// bufferAccessMaskFor is imageAccessMaskFor's buffer equivalent; there
// is no buffer layout, only stage and access.
func bufferAccessMaskFor(usage rgtypes.Usage, access rgtypes.AccessType) rgtypes.AccessMask {
	switch usage {
	case rgtypes.UsageConstantBuffer:
		return rgtypes.AccessMaskUniformRead
	case rgtypes.UsageStructuredBuffer:
		return combineAccess(access, rgtypes.AccessMaskShaderRead, rgtypes.AccessMaskShaderWrite)
	case rgtypes.UsageVertexBuffer:
		return rgtypes.AccessMaskVertexAttributeRead
	case rgtypes.UsageIndexBuffer:
		return rgtypes.AccessMaskIndexRead
	case rgtypes.UsageIndirectBuffer:
		return rgtypes.AccessMaskIndirectCommandRead
	case rgtypes.UsageTransferSource:
		return rgtypes.AccessMaskTransferRead
	case rgtypes.UsageTransferDestination:
		return rgtypes.AccessMaskTransferWrite
	default:
		return rgtypes.AccessMaskNone
	}
}

func combineAccess(access rgtypes.AccessType, read, write rgtypes.AccessMask) rgtypes.AccessMask {
	switch access {
	case rgtypes.AccessRead:
		return read
	case rgtypes.AccessWrite:
		return write
	default:
		return read | write
	}
}

// writeAccessMask is every AccessMask bit that represents a write. A
// barrier is owed whenever the next use's mask intersects this set, even
// if the layout and access mask are otherwise unchanged from the last
// use, since two consecutive writes still need to be ordered on the GPU
// (spec section 8's "u2 is a write" barrier property).
const writeAccessMask = rgtypes.AccessMaskColorAttachmentWrite |
	rgtypes.AccessMaskDepthStencilAttachmentWrite |
	rgtypes.AccessMaskShaderWrite |
	rgtypes.AccessMaskTransferWrite

func isWriteAccess(mask rgtypes.AccessMask) bool {
	return mask&writeAccessMask != 0
}
