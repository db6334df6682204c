package forwarder

import "relay-lab/contracts"

// Kind is the code name the forwarder is registered under in the ledger.
const Kind = "Forwarder"

const abiJSON = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_owner", "type": "address"},
			{"internalType": "address", "name": "_caller", "type": "address"}
		],
		"stateMutability": "nonpayable",
		"type": "constructor"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "address", "name": "_oldCaller", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "_newCaller", "type": "address"}
		],
		"name": "CallerSet",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "previousOwner", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
		],
		"name": "OwnershipTransferred",
		"type": "event"
	},
	{
		"inputs": [],
		"name": "caller",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "_target", "type": "address"},
			{"internalType": "bytes", "name": "_data", "type": "bytes"}
		],
		"name": "forwardCall",
		"outputs": [{"internalType": "bytes", "name": "", "type": "bytes"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "_newCaller", "type": "address"}],
		"name": "setCaller",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var ABI = contracts.MustParseABI(abiJSON)
